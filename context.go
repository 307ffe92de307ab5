package goJourney

import "context"

type clientIPContextKey struct{}
type realmContextKey struct{}
type deviceIDContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The engine records
// it on audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRealm attaches the authentication realm to ctx. Transports use it to
// route to the realm-specific journey endpoints; audit events carry it.
// When absent the root realm "/" is used.
func WithRealm(ctx context.Context, realm string) context.Context {
	return context.WithValue(ctx, realmContextKey{}, realm)
}

// WithDeviceID attaches a device identifier to ctx, recorded on audit
// events for correlating journeys across app restarts.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDContextKey{}, deviceID)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// RealmFromContext returns the realm attached to ctx, or the root realm.
func RealmFromContext(ctx context.Context) string {
	if ctx == nil {
		return "/"
	}

	realm, _ := ctx.Value(realmContextKey{}).(string)
	if realm == "" {
		return "/"
	}

	return realm
}

func deviceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	deviceID, _ := ctx.Value(deviceIDContextKey{}).(string)
	return deviceID
}
