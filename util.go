package anthropic

import "time"

// DurationPtr is a convenience helper for optional timeout fields.
func DurationPtr(d time.Duration) *time.Duration { return &d }

// BoolPtr is a convenience helper for optional boolean fields.
func BoolPtr(b bool) *bool { return &b }

// IntPtr is a convenience helper for optional retry counts.
func IntPtr(v int) *int { return &v }

// Int64Ptr is a convenience helper for optional int64 fields.
func Int64Ptr(v int64) *int64 { return &v }

// Float64Ptr is a convenience helper for optional float64 fields.
func Float64Ptr(v float64) *float64 { return &v }

// StringPtr is a convenience helper for optional string fields.
func StringPtr(s string) *string { return &s }
