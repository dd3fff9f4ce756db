// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

/*
Package auth decides who may reach which route and manages the login session.

# Components

  - CookieCodec: the session lives entirely in one signed and encrypted
    cookie (gorilla/securecookie, keys derived from the configured secret
    with HKDF). It expires after a fixed TTL.
  - IdentityProvider: the Azure AD code flow (AzureProvider, built on the
    zitadel relying party with a certificate client assertion) or a static
    provider for test mode.
  - Gate: the request authorization middleware. Rules are evaluated in a
    fixed order and the first match wins:
    1. public routes pass
    2. static HTML requires a session, redirecting to the provider
    3. other static files pass
    4. everything else requires a session; programmatic callers get 401
  - ISPGuard: an alternative to the session check that admits callers whose
    IP belongs to one ISP, as reported by ip-api.com.

A failure while evaluating a request (an undecodable cookie, a panic) is
treated as "not authenticated" and never surfaces as a 500.

# Sessions

	sess, err := codec.Load(r)      // empty session when the cookie is absent
	sess.UserName = "Alice"
	err = codec.Save(w, sess)

Handlers behind the Gate read the authenticated name with UserFromContext.
*/
package auth
