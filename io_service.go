package khub

type IoService interface {
	Splitter() Splitter
	IoHandler() IoHandler
	IoConfig() *IoConfig
	AddRef()
	DecRef()
	NextSessionId() uint64
}
