package amino

import (
	"errors"
	"fmt"
)

// Kind classifies an API error by the service's api:statuscode field.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedService
	KindFileTooLarge
	KindInvalidRequest
	KindInvalidSession
	KindAccessDenied
	KindUnexistentData
	KindActionNotAllowed
	KindMessageNeeded
	KindInvalidAccountOrPassword
	KindAccountDisabled
	KindInvalidEmail
	KindInvalidPassword
	KindEmailAlreadyTaken
	KindAccountDoesNotExist
	KindInvalidDevice
	KindTooManyRequests
	KindCantFollowYourself
	KindUserUnavailable
	KindBanned
	KindNotMemberOfCommunity
	KindRequestRejected
	KindActivateAccount
	KindCantLeaveCommunity
	KindTitleTooLong
	KindEmailFlaggedAsSpam
	KindAccountDeleted
	KindReachedMaxTitles
	KindVerificationRequired
	KindInvalidAuthNewDeviceLink
	KindCommandCooldown
	KindBannedByTeam
	KindBadImage
	KindInvalidThemepack
	KindInvalidVoiceNote
	KindRequestedNoLongerExists
	KindPageRepostedTooRecently
	KindInsufficientLevel
	KindWallCommentingDisabled
	KindCommunityNoLongerExists
	KindInvalidCodeOrLink
	KindCommunityNameAlreadyTaken
	KindCommunityCreateLimitReached
	KindCommunityDisabled
	KindCommunityDeleted
	KindReachedMaxCategories
	KindDuplicatePollOption
	KindReachedMaxPollOptions
	KindTooManyChats
	KindChatFull
	KindTooManyInviteUsers
	KindChatInvitesDisabled
	KindRemovedFromChat
	KindUserNotJoined
	KindMemberKickedByOrganizer
	KindLevelFiveRequired
	KindChatViewOnly
	KindChatMessageTooBig
	KindInviteCodeNotFound
	KindAlreadyRequestedJoinCommunity
	KindPushLimitation
	KindAlreadyCheckedIn
	KindAlreadyUsedMonthlyRepair
	KindAccountAlreadyRestored
	KindIncorrectVerificationCode
	KindNotOwnerOfChatBubble
	KindNotEnoughCoins
	KindAlreadyPlayedLottery
	KindCannotSendCoins
	KindAminoIDAlreadyChanged
	KindInvalidAminoID
	KindInvalidName
)

// statusKinds maps api:statuscode values to error kinds.
var statusKinds = map[int]Kind{
	100:  KindUnsupportedService,
	102:  KindFileTooLarge,
	103:  KindInvalidRequest,
	104:  KindInvalidRequest,
	105:  KindInvalidSession,
	106:  KindAccessDenied,
	107:  KindUnexistentData,
	110:  KindActionNotAllowed,
	113:  KindMessageNeeded,
	200:  KindInvalidAccountOrPassword,
	201:  KindAccountDisabled,
	210:  KindAccountDisabled,
	213:  KindInvalidEmail,
	214:  KindInvalidPassword,
	215:  KindEmailAlreadyTaken,
	216:  KindAccountDoesNotExist,
	218:  KindInvalidDevice,
	219:  KindTooManyRequests,
	221:  KindCantFollowYourself,
	225:  KindUserUnavailable,
	229:  KindBanned,
	230:  KindNotMemberOfCommunity,
	235:  KindRequestRejected,
	238:  KindActivateAccount,
	239:  KindCantLeaveCommunity,
	240:  KindTitleTooLong,
	241:  KindEmailFlaggedAsSpam,
	246:  KindAccountDeleted,
	262:  KindReachedMaxTitles,
	270:  KindVerificationRequired,
	271:  KindInvalidAuthNewDeviceLink,
	291:  KindCommandCooldown,
	293:  KindBannedByTeam,
	300:  KindBadImage,
	313:  KindInvalidThemepack,
	314:  KindInvalidVoiceNote,
	500:  KindRequestedNoLongerExists,
	503:  KindPageRepostedTooRecently,
	551:  KindInsufficientLevel,
	700:  KindRequestedNoLongerExists,
	702:  KindWallCommentingDisabled,
	801:  KindCommunityNoLongerExists,
	802:  KindInvalidCodeOrLink,
	805:  KindCommunityNameAlreadyTaken,
	806:  KindCommunityCreateLimitReached,
	814:  KindCommunityDisabled,
	833:  KindCommunityDeleted,
	1002: KindReachedMaxCategories,
	1501: KindDuplicatePollOption,
	1507: KindReachedMaxPollOptions,
	1600: KindRequestedNoLongerExists,
	1602: KindTooManyChats,
	1605: KindChatFull,
	1606: KindTooManyInviteUsers,
	1611: KindChatInvitesDisabled,
	1612: KindRemovedFromChat,
	1613: KindUserNotJoined,
	1637: KindMemberKickedByOrganizer,
	1661: KindLevelFiveRequired,
	1663: KindChatViewOnly,
	1664: KindChatMessageTooBig,
	1900: KindInviteCodeNotFound,
	2001: KindAlreadyRequestedJoinCommunity,
	2501: KindPushLimitation,
	2502: KindPushLimitation,
	2503: KindPushLimitation,
	2504: KindPushLimitation,
	2601: KindAlreadyCheckedIn,
	2611: KindAlreadyUsedMonthlyRepair,
	2800: KindAccountAlreadyRestored,
	3102: KindIncorrectVerificationCode,
	3905: KindNotOwnerOfChatBubble,
	4300: KindNotEnoughCoins,
	4400: KindAlreadyPlayedLottery,
	4500: KindCannotSendCoins,
	4501: KindCannotSendCoins,
	6001: KindAminoIDAlreadyChanged,
	6002: KindInvalidAminoID,
	9901: KindInvalidName,
}

// KindForStatus returns the error kind for an api:statuscode value.
func KindForStatus(status int) Kind {
	if k, ok := statusKinds[status]; ok {
		return k
	}
	return KindUnknown
}

// APIError is a service-level error carried in a 2xx-shaped JSON envelope.
type APIError struct {
	Kind       Kind
	StatusCode int    // api:statuscode
	Message    string // api:message
	Duration   string // api:duration
	Timestamp  string // api:timestamp
}

func (e *APIError) Error() string {
	return fmt.Sprintf("amino api error %d: %s", e.StatusCode, e.Message)
}

// Is lets callers match on the kind: errors.Is(err, &APIError{Kind: KindBanned}).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.StatusCode == 0 || t.StatusCode == e.StatusCode)
}

// ServerError is an HTTP transport-level failure from the service.
type ServerError struct {
	StatusCode int
	Reason     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("amino server error %d: %s", e.StatusCode, e.Reason)
}

// IsRetryable reports whether the failure should trigger a retry.
func (e *ServerError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// ErrNoSession is returned by operations that require a logged-in session.
var ErrNoSession = errors.New("no active session")

// apiEnvelope is the error portion of every service response.
type apiEnvelope struct {
	StatusCode int    `json:"api:statuscode"`
	Message    string `json:"api:message"`
	Duration   string `json:"api:duration"`
	Timestamp  string `json:"api:timestamp"`
}

func (env apiEnvelope) toError() *APIError {
	return &APIError{
		Kind:       KindForStatus(env.StatusCode),
		StatusCode: env.StatusCode,
		Message:    env.Message,
		Duration:   env.Duration,
		Timestamp:  env.Timestamp,
	}
}
