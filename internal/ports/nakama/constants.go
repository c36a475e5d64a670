package nakama

const (
	// RpcCreateGame creates a session and its push match.
	RpcCreateGame = "flip_create_game"
	// RpcSubmitCommand submits one command as the calling user.
	RpcSubmitCommand = "flip_submit_command"
	// RpcGetView returns the calling user's view of a session.
	RpcGetView = "flip_get_view"
	// RpcListGames lists live sessions.
	RpcListGames = "flip_list_games"

	// MatchNameSession is the authoritative match handler name registered with Nakama.
	// One match mirrors one session and pushes views to its seated players.
	MatchNameSession = "flip_session"

	// StorageCollectionResults holds finished game records.
	StorageCollectionResults = "flip_results"
)

// Op codes for match messages.
const (
	// Client -> Server
	OpSubmitCommand int64 = 1

	// Server -> Client
	OpView          int64 = 101
	OpCommandResult int64 = 102
	OpError         int64 = 103
)

// Nakama runtime error codes (gRPC status codes).
const (
	codeInvalidArgument  = 3
	codeNotFound         = 5
	codePermissionDenied = 7
	codeInternal         = 13
	codeUnauthenticated  = 16
)

const matchTickRate = 5
