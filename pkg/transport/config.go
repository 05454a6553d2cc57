package transport

// Config holds provider configuration. Provider tokens are optional so
// development environments can run on the dev sender; SenderEmail is
// required because it establishes the identity on every outbound message.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	ResendAPIKey         string `env:"RESEND_API_KEY"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	ReplyToEmail         string `env:"REPLY_TO_EMAIL"`
	DevOutputDir         string `env:"DEV_EMAIL_DIR" envDefault:"./tmp/emails"`
}
