// Package corsproxy implements vrcproxy, a local relay that lets browser code
// call the upstream API.
//
// The relay accepts prefix-form URLs, "http://relay/<absolute upstream url>",
// the convention vrchat.PrefixProxy produces, and forwards only targets under
// the configured upstream base. It answers CORS itself via rs/cors, strips
// browser-only headers before forwarding, and can rate limit per client IP.
// Relay-side failures use the upstream error shape.
//
// Rewrite builds the matching vrchat.ProxyHandler for a relay address.
package corsproxy
