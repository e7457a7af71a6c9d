package prompts

// Library defines the interface for the complete prompt library.
type Library interface {
	ExtractParams() ExtractParamsPrompt
	SynthesizeReply() SynthesizeReplyPrompt
}

// LibraryImpl implements the Library interface.
type LibraryImpl struct {
	extractParams   ExtractParamsPrompt
	synthesizeReply SynthesizeReplyPrompt
}

func (l *LibraryImpl) ExtractParams() ExtractParamsPrompt     { return l.extractParams }
func (l *LibraryImpl) SynthesizeReply() SynthesizeReplyPrompt { return l.synthesizeReply }

// NewLibrary creates a new prompt library instance.
func NewLibrary() Library {
	return &LibraryImpl{
		extractParams:   NewExtractParamsVersions(),
		synthesizeReply: NewSynthesizeReplyVersions(),
	}
}

// DefaultLibrary is the default prompt library instance.
var DefaultLibrary = NewLibrary()
