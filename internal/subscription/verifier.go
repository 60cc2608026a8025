// Package subscription implements the forced-channel-subscription gate:
// given a user, it reports which required channels they have not joined.
package subscription

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
)

// MembershipAPI is the membership-lookup capability the verifier needs.
// *telego.Bot satisfies it.
type MembershipAPI interface {
	GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error)
}

// AccessPolicy groups the admin identities and the admin-exemption switch.
type AccessPolicy struct {
	AdminIDs     []int64
	AdminsExempt bool
}

// IsAdmin reports whether userID belongs to the admin set.
func (p AccessPolicy) IsAdmin(userID int64) bool {
	for _, id := range p.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Verifier checks user membership in the configured required channels.
type Verifier struct {
	api      MembershipAPI
	channels []string
	policy   AccessPolicy
	timeout  time.Duration
}

// NewVerifier creates a Verifier. An empty channel list makes the gate a
// no-op. A zero timeout falls back to 5 seconds.
func NewVerifier(api MembershipAPI, channels []string, policy AccessPolicy, timeout time.Duration) *Verifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{
		api:      api,
		channels: channels,
		policy:   policy,
		timeout:  timeout,
	}
}

// Policy returns the access policy the verifier was built with.
func (v *Verifier) Policy() AccessPolicy {
	return v.policy
}

// MissingChannels returns the required channels userID has not joined, in
// configured order. An empty result means the gate is satisfied.
//
// A failed or timed-out lookup counts the channel as missing: an
// unverifiable requirement must never silently pass.
func (v *Verifier) MissingChannels(ctx context.Context, userID int64) []string {
	if len(v.channels) == 0 {
		return nil
	}
	if v.policy.AdminsExempt && v.policy.IsAdmin(userID) {
		return nil
	}

	var missing []string
	for _, channel := range v.channels {
		if !v.isMember(ctx, channel, userID) {
			missing = append(missing, channel)
		}
	}
	return missing
}

// isMember runs a single membership lookup under the verifier's timeout.
func (v *Verifier) isMember(ctx context.Context, channel string, userID int64) bool {
	lookupCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	member, err := v.api.GetChatMember(lookupCtx, &telego.GetChatMemberParams{
		ChatID: ChatID(channel),
		UserID: userID,
	})
	if err != nil {
		log.Printf("[Gate User:%d Channel:%s] Membership lookup failed, treating as missing: %v", userID, channel, err)
		return false
	}
	if member == nil {
		log.Printf("[Gate User:%d Channel:%s] Membership lookup returned nil member, treating as missing", userID, channel)
		return false
	}

	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator, telego.MemberStatusMember:
		return true
	}
	// left, kicked, restricted or unknown
	return false
}

// ChatID maps a configured channel identifier onto a telego chat reference.
// Numeric identifiers are chat IDs, everything else is a channel username.
func ChatID(channel string) telego.ChatID {
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return telego.ChatID{ID: id}
	}
	if !strings.HasPrefix(channel, "@") {
		channel = "@" + channel
	}
	return telego.ChatID{Username: channel}
}
