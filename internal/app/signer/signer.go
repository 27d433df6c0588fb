/*
Package signer wraps the external platform's credential signing primitive.

The policy engine only ever talks to the Signer interface; the concrete Agora
implementation lives behind it so tests can swap in a fake and the rest of the
application never learns the token wire format.
*/
package signer

// Role designates the permission level encoded into an RTC credential.
type Role int

const (
	// RolePublisher may publish and subscribe to media in the channel.
	RolePublisher Role = iota

	// RoleSubscriber may only receive media. Issued solely when the
	// client-role toggle is enabled and the caller asks for "audience".
	RoleSubscriber
)

// Signer defines the public interface to the credential signing primitive.
// TTLs are expressed in seconds from the moment of signing, matching the
// platform's expectation. All methods are safe for concurrent use.
type Signer interface {
	// RTCToken signs a channel credential bound to a numeric uid.
	RTCToken(channel string, uid uint32, role Role, ttlSeconds uint32) (string, error)

	// RTCTokenWithAccount signs a channel credential bound to a string account.
	RTCTokenWithAccount(channel, account string, role Role, ttlSeconds uint32) (string, error)

	// RTMToken signs a messaging credential bound to an opaque account id.
	RTMToken(account string, ttlSeconds uint32) (string, error)
}
