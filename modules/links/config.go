package links

// Config holds the link module settings loaded from the environment.
type Config struct {
	// SigningSecret is the server-held key all link tokens are signed with.
	SigningSecret string `env:"LINK_SIGNING_SECRET,required"`
	// BaseURL is the public origin minted link URLs point at.
	BaseURL string `env:"LINK_BASE_URL" envDefault:"http://localhost:8080"`
}
