// Package vrchat provides a client for the VRChat REST API.
//
// # Overview
//
// The package turns the upstream's loosely shaped JSON payloads into a small,
// stable domain model: users, worlds and instances. It handles Basic
// authentication, the session api key every call must carry, and two
// per-client read-through caches.
//
// # Architecture
//
//   - client.go: Client construction, options and the authenticated request pipeline
//   - session.go: lazy, single-flight acquisition of the session api key
//   - memo.go: read-through cache shared by the cached lookups
//   - transport.go: Transport boundary and the default net/http implementation
//   - payloads.go: wire shapes of upstream responses
//   - normalize.go: payload to domain model mapping, location parsing, access tags
//   - users.go, worlds.go, notifications.go: the public operations
//
// # Client Usage
//
//	client := vrchat.New(vrchat.Credentials{Username: "me", Password: "secret"})
//
//	friends, err := client.Friends(ctx)
//	if err != nil {
//		log.Printf("friends failed: %v", err)
//	}
//	for _, f := range friends {
//		if f.Location != nil {
//			inst, _ := client.Instance(ctx, *f.Location)
//			fmt.Println(f.DisplayName, inst.Access)
//		}
//	}
//
// # Request Pipeline
//
// Every operation goes through the same steps:
//
//  1. Empty credentials fail with *ConfigError before any request is sent
//  2. The session api key is fetched once from /config and then reused
//  3. The key is appended as the apiKey query parameter
//  4. The URL passes through the ProxyHandler (identity by default)
//  5. The Transport sends the request with a Basic Authorization header
//  6. A response whose body carries an "error" member fails with *UpstreamError
//
// There are no retries and no timeouts. Callers that want either wrap the
// context they pass in or configure the *http.Client given to WithHTTPClient.
//
// # Session Key
//
// Concurrent first calls share one config request. A failed key fetch stores
// nothing, so the next call tries again.
//
// # Caches
//
// CurrentUser and WorldInfo fetch each key at most once per Client. Callers
// arriving while the fetch is in flight wait for the same result. A failed
// fetch stays cached for its key; construct a new Client to start over.
//
// # Access Tags
//
// Instance access is derived from four server flags by an ordered table,
// first match wins:
//
//	hidden && !friends && !private  -> friends+
//	friends && !private             -> friends
//	private && !canRequestInvite    -> invite
//	private && canRequestInvite     -> invite+
//	otherwise                       -> public
//
// # Errors
//
//   - *ConfigError: missing credentials (errors.Is(err, ErrNoCredentials))
//   - *TransportError: network failure, non-JSON body or non-2xx status
//   - *UpstreamError: the upstream reported an error payload
//
// # Thread Safety
//
// A Client is safe for concurrent use.
package vrchat
