package processing

// Splitter turns document text into ordered chunk texts.
type Splitter interface {
	Split(text string) ([]string, error)
}
