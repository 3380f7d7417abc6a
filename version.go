package khub

const (
	Product = "khub"
	Version = "0.1.0"
)
