package chessdto

// Error codes carried by DomainError.
const (
	CodeNoGame        = "no_game"
	CodeNotYourTurn   = "not_your_turn"
	CodeIllegalMove   = "illegal_move"
	CodeMalformedMove = "malformed_move"
	CodeConflict      = "conflict"
	CodeGameOver      = "game_over"
	CodeBadSquare     = "bad_square"
	CodeLobbyNotFound = "lobby_not_found"
	CodeLobbyActive   = "lobby_active"
	CodeLobbyWaiting  = "lobby_waiting"
	CodeLobbyFull     = "lobby_full"
	CodeSelfJoin      = "self_join"
	CodeBusy          = "busy"
	CodeNoArchive     = "no_archive"
	CodeInternal      = "internal"
)

// DomainError is a user-facing failure. Detail carries a value the user
// needs to act on, such as the code of an already open lobby.
type DomainError struct {
	Code      string
	Message   string
	Detail    string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}
