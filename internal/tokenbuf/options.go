package tokenbuf

const (
	// DefaultLookbackMargin is enough for lexers whose rules peek at
	// most one rune past a token.
	DefaultLookbackMargin = 1
	// DefaultSyncRun is the number of agreeing tokens a plain lexer
	// needs before its output is spliced with old tokens.
	DefaultSyncRun = 3
)

// Options tune ReScan.
type Options struct {
	// LookbackMargin is how many tokens before the edit are relexed.
	LookbackMargin int
	// SyncRun applies when the lexer carries no state.
	SyncRun int
}

func DefaultOptions() Options {
	return Options{LookbackMargin: DefaultLookbackMargin, SyncRun: DefaultSyncRun}
}

func (o Options) normalized() Options {
	if o.LookbackMargin < 1 {
		o.LookbackMargin = DefaultLookbackMargin
	}
	if o.SyncRun < 1 {
		o.SyncRun = DefaultSyncRun
	}
	return o
}
