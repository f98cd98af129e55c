// Package authsdk holds the JSON wire types of the auth service and a small
// client for calling it. The server encodes its responses with these types,
// so the two cannot drift apart.
package authsdk
