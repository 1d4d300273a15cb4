package notifier

// Discord formatting constants
const (
	DiscordUsername   = "NeverIdle"
	SuccessEmbedColor = 0x5CB85C
	WarningEmbedColor = 0xF0AD4E
	ErrorEmbedColor   = 0xD9534F
	InfoEmbedColor    = 0x5BC0DE
)

// MaxFieldValueLength is Discord's limit for an embed field value
const MaxFieldValueLength = 1024
