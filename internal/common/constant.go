// Package common contains shared constants and sentinel errors used across
// braindock components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "authorization"

// DefaultMaxErrorLength bounds the delivery error text stored on a failed
// sync queue item.
const DefaultMaxErrorLength = 1000
