package chessdto

// RequestMeta identifies who sent a command and where.
type RequestMeta struct {
	Room       string
	Sender     string
	SenderName string
}

type LobbyEntry struct {
	Code        string
	CreatorName string
	CreatorRoom string
}
