package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMembershipAPI is a mock implementing MembershipAPI
type MockMembershipAPI struct {
	mock.Mock
}

func (m *MockMembershipAPI) GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error) {
	args := m.Called(ctx, params)
	if member, ok := args.Get(0).(telego.ChatMember); ok {
		return member, args.Error(1)
	}
	return nil, args.Error(1)
}

func forChannel(channel string) interface{} {
	return mock.MatchedBy(func(params *telego.GetChatMemberParams) bool {
		return params.ChatID == ChatID(channel)
	})
}

func TestMissingChannelsEmptyConfiguration(t *testing.T) {
	api := new(MockMembershipAPI)
	v := NewVerifier(api, nil, AccessPolicy{}, time.Second)

	assert.Empty(t, v.MissingChannels(context.Background(), 100))
	api.AssertNotCalled(t, "GetChatMember", mock.Anything, mock.Anything)
}

func TestMissingChannelsStatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		member  telego.ChatMember
		missing bool
	}{
		{"creator", &telego.ChatMemberOwner{Status: telego.MemberStatusCreator}, false},
		{"administrator", &telego.ChatMemberAdministrator{Status: telego.MemberStatusAdministrator}, false},
		{"member", &telego.ChatMemberMember{Status: telego.MemberStatusMember}, false},
		{"left", &telego.ChatMemberLeft{Status: telego.MemberStatusLeft}, true},
		{"banned", &telego.ChatMemberBanned{Status: telego.MemberStatusBanned}, true},
		{"restricted", &telego.ChatMemberRestricted{Status: telego.MemberStatusRestricted}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockMembershipAPI)
			api.On("GetChatMember", mock.Anything, mock.Anything).Return(tt.member, nil)
			v := NewVerifier(api, []string{"@chan"}, AccessPolicy{}, time.Second)

			missing := v.MissingChannels(context.Background(), 100)
			if tt.missing {
				assert.Equal(t, []string{"@chan"}, missing)
			} else {
				assert.Empty(t, missing)
			}
		})
	}
}

// A failed lookup must count the channel as missing, never silently pass.
func TestMissingChannelsFailClosedOnLookupError(t *testing.T) {
	api := new(MockMembershipAPI)
	api.On("GetChatMember", mock.Anything, forChannel("@good")).Return(&telego.ChatMemberMember{Status: telego.MemberStatusMember}, nil)
	api.On("GetChatMember", mock.Anything, forChannel("@flaky")).Return(nil, errors.New("bad gateway"))
	v := NewVerifier(api, []string{"@good", "@flaky"}, AccessPolicy{}, time.Second)

	missing := v.MissingChannels(context.Background(), 100)
	assert.Equal(t, []string{"@flaky"}, missing)
}

func TestMissingChannelsPreservesConfiguredOrder(t *testing.T) {
	api := new(MockMembershipAPI)
	api.On("GetChatMember", mock.Anything, mock.Anything).Return(&telego.ChatMemberLeft{Status: telego.MemberStatusLeft}, nil)
	v := NewVerifier(api, []string{"@b", "@a", "@c"}, AccessPolicy{}, time.Second)

	missing := v.MissingChannels(context.Background(), 100)
	assert.Equal(t, []string{"@b", "@a", "@c"}, missing)
}

func TestMissingChannelsAdminExemption(t *testing.T) {
	api := new(MockMembershipAPI)
	policy := AccessPolicy{AdminIDs: []int64{42}, AdminsExempt: true}
	v := NewVerifier(api, []string{"@chan"}, policy, time.Second)

	assert.Empty(t, v.MissingChannels(context.Background(), 42))
	api.AssertNotCalled(t, "GetChatMember", mock.Anything, mock.Anything)
}

func TestMissingChannelsAdminNotExemptWhenDisabled(t *testing.T) {
	api := new(MockMembershipAPI)
	api.On("GetChatMember", mock.Anything, mock.Anything).Return(&telego.ChatMemberLeft{Status: telego.MemberStatusLeft}, nil)
	policy := AccessPolicy{AdminIDs: []int64{42}, AdminsExempt: false}
	v := NewVerifier(api, []string{"@chan"}, policy, time.Second)

	assert.Equal(t, []string{"@chan"}, v.MissingChannels(context.Background(), 42))
}

func TestAccessPolicyIsAdmin(t *testing.T) {
	policy := AccessPolicy{AdminIDs: []int64{1, 2, 3}}
	assert.True(t, policy.IsAdmin(2))
	assert.False(t, policy.IsAdmin(4))
	assert.False(t, AccessPolicy{}.IsAdmin(1))
}

func TestChatID(t *testing.T) {
	assert.Equal(t, telego.ChatID{ID: -1001234}, ChatID("-1001234"))
	assert.Equal(t, telego.ChatID{Username: "@chan"}, ChatID("@chan"))
	assert.Equal(t, telego.ChatID{Username: "@chan"}, ChatID("chan"))
}
