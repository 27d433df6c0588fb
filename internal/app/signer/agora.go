/*
Package signer wraps the external platform's credential signing primitive.

This file contains the Agora implementation built on the official token builder
library. Signing is a local HMAC computation, not a network call, so it is
synchronous and effectively infallible for valid inputs.
*/
package signer

import (
	"fmt"

	rtctokenbuilder "github.com/AgoraIO-Community/go-tokenbuilder/rtctokenbuilder"
	rtmtokenbuilder "github.com/AgoraIO-Community/go-tokenbuilder/rtmtokenbuilder"
)

// agoraSigner implements Signer using the platform's AccessToken builders.
type agoraSigner struct {
	appID          string
	appCertificate string
}

// NewAgoraSigner returns a Signer backed by the Agora token builder library.
func NewAgoraSigner(appID, appCertificate string) Signer {
	return &agoraSigner{
		appID:          appID,
		appCertificate: appCertificate,
	}
}

// platformRole converts our role enum into the builder's constant.
func platformRole(role Role) rtctokenbuilder.Role {
	if role == RoleSubscriber {
		return rtctokenbuilder.RoleSubscriber
	}
	return rtctokenbuilder.RolePublisher
}

// RTCToken signs a channel credential bound to a numeric uid.
func (s *agoraSigner) RTCToken(channel string, uid uint32, role Role, ttlSeconds uint32) (string, error) {
	token, err := rtctokenbuilder.BuildTokenWithUid(
		s.appID, s.appCertificate, channel, uid, platformRole(role), ttlSeconds,
	)
	if err != nil {
		return "", fmt.Errorf("rtc token build failed: %w", err)
	}
	return token, nil
}

// RTCTokenWithAccount signs a channel credential bound to a string account.
func (s *agoraSigner) RTCTokenWithAccount(channel, account string, role Role, ttlSeconds uint32) (string, error) {
	token, err := rtctokenbuilder.BuildTokenWithAccount(
		s.appID, s.appCertificate, channel, account, platformRole(role), ttlSeconds,
	)
	if err != nil {
		return "", fmt.Errorf("rtc token build failed: %w", err)
	}
	return token, nil
}

// RTMToken signs a messaging credential bound to an opaque account id.
func (s *agoraSigner) RTMToken(account string, ttlSeconds uint32) (string, error) {
	token, err := rtmtokenbuilder.BuildToken(s.appID, s.appCertificate, account, ttlSeconds)
	if err != nil {
		return "", fmt.Errorf("rtm token build failed: %w", err)
	}
	return token, nil
}
