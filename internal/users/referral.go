// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package users

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
)

// EncodeReferralCode derives the unpadded URL-safe base64 code of a username.
func EncodeReferralCode(username string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(username))
}

// DecodeReferralCode reverses EncodeReferralCode. Padded codes are accepted.
func DecodeReferralCode(code string) (string, bool) {
	code = strings.TrimRight(code, "=")
	if code == "" {
		return "", false
	}
	b, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil || len(b) == 0 || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// ReferralOutcome is what Resolve did.
type ReferralOutcome string

const (
	ReferralGranted         ReferralOutcome = "granted"
	ReferralSelf            ReferralOutcome = "self"
	ReferralExistingUser    ReferralOutcome = "existing_user"
	ReferralUnknownReferrer ReferralOutcome = "unknown_referrer"
)

// Referrals applies the referral policy on top of a Store.
type Referrals struct {
	store *Store
	bonus int
}

// NewReferrals uses ReferralBonus.
func NewReferrals(store *Store) *Referrals {
	return &Referrals{store: store, bonus: ReferralBonus}
}

// Resolve honors a referral of visitor by referrer. lookup must come from
// the Lookup that admitted visitor on this login or visit, so the new-user
// decision is the one made before visitor was inserted.
func (r *Referrals) Resolve(ctx context.Context, referrer, visitor string, lookup Lookup) (ReferralOutcome, error) {
	outcome, err := r.resolve(ctx, referrer, visitor, lookup)
	if err != nil {
		return "", err
	}
	metrics.ReferralsTotal.WithLabelValues(string(outcome)).Inc()
	logging.Ctx(ctx).Info().
		Str("referrer", referrer).
		Str("visitor", visitor).
		Str("outcome", string(outcome)).
		Msg("Referral resolved")
	return outcome, nil
}

func (r *Referrals) resolve(ctx context.Context, referrer, visitor string, lookup Lookup) (ReferralOutcome, error) {
	if referrer == visitor {
		return ReferralSelf, nil
	}

	if !lookup.Created {
		err := r.store.AddMessage(ctx, visitor, Message{
			Type:  MessageWarning,
			Title: "Referral not applied",
			Text:  "Referral links only work for new users. You already have an account, so no referral bonus was granted.",
		})
		if err != nil {
			return "", err
		}
		return ReferralExistingUser, nil
	}

	if err := r.store.ProcessReferral(ctx, referrer, visitor); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ReferralUnknownReferrer, nil
		}
		return "", err
	}

	err := r.store.creditReferral(ctx, referrer, visitor, r.bonus,
		Message{
			Type:  MessageSuccess,
			Title: "Congratulations!",
			Text:  fmt.Sprintf("%s joined using your referral link. You earned %d points!", visitor, r.bonus),
		},
		Message{
			Type:  MessageSuccess,
			Title: "Thank You!",
			Text:  fmt.Sprintf("Thanks for joining through %s's referral link. Welcome aboard!", referrer),
		},
	)
	if errors.Is(err, ErrUserNotFound) {
		return ReferralUnknownReferrer, nil
	}
	if err != nil {
		return "", fmt.Errorf("credit referral: %w", err)
	}
	return ReferralGranted, nil
}
