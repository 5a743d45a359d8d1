package ioexport

import (
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"
)

// newPassBar creates a progress bar of taxa looked up in a pass. A nil
// writer hides the bar.
func newPassBar(total, pass int, w io.Writer) *pb.ProgressBar {
	if w == nil {
		w = io.Discard
	}
	bar := pb.Full.New(total)
	bar.SetWriter(w)
	bar.Set("prefix", fmt.Sprintf("Pass %d: ", pass))
	bar.Set(pb.CleanOnFinish, true)
	return bar.Start()
}
