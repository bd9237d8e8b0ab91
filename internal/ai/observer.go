package ai

// Observer receives the progress of one request. OnDelta carries the
// incremental fragment of each record, never the cumulative text, and is
// skipped for empty fragments. Exactly one of OnComplete, OnCancelled or
// OnError follows, after which nothing else is delivered.
//
// All calls for a request come from the same goroutine.
type Observer interface {
	OnDelta(text string)
	OnComplete(finalText string)
	OnCancelled()
	OnError(err error)
}

// ParseFailureObserver is implemented by observers that want to hear about
// lines that were skipped because they could not be parsed.
type ParseFailureObserver interface {
	OnParseFailure(line string, err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	Delta        func(text string)
	Complete     func(finalText string)
	Cancelled    func()
	Error        func(err error)
	ParseFailure func(line string, err error)
}

var (
	_ Observer             = ObserverFuncs{}
	_ ParseFailureObserver = ObserverFuncs{}
)

func (o ObserverFuncs) OnDelta(text string) {
	if o.Delta != nil {
		o.Delta(text)
	}
}

func (o ObserverFuncs) OnComplete(finalText string) {
	if o.Complete != nil {
		o.Complete(finalText)
	}
}

func (o ObserverFuncs) OnCancelled() {
	if o.Cancelled != nil {
		o.Cancelled()
	}
}

func (o ObserverFuncs) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

func (o ObserverFuncs) OnParseFailure(line string, err error) {
	if o.ParseFailure != nil {
		o.ParseFailure(line, err)
	}
}
