// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

/*
Package cache provides a thread-safe in-memory TTL cache.

Entries expire lazily on Get and in bulk through Cleanup. Janitor runs
Cleanup on an interval and is meant to be added to the supervisor tree, so
no goroutine is started by New.

# Usage

	decisions := cache.New[bool](10 * time.Minute)
	decisions.Set(ip, allowed)
	if allowed, ok := decisions.Get(ip); ok {
	    return allowed
	}

The ISP allow-list guard is the only user today: client IP to allow/deny
decision, cached for the configured ISP cache TTL.
*/
package cache
