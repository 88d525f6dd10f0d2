package mindmap2pdf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mindmap2pdf/internal/pdfinfo"
	"github.com/alnah/go-mindmap2pdf/internal/pdfinfo/pdftest"
)

// Compile-time interface checks.
var (
	_ tab     = (*fakeTab)(nil)
	_ browser = (*fakeBrowser)(nil)
)

var errFake = errors.New("fake failure")

// scriptName maps the package's page scripts to short names for assertions.
func scriptName(script string) string {
	switch script {
	case measureScript:
		return "measure"
	case retransformScript:
		return "retransform"
	case cloneScript:
		return "clone"
	}
	return "unknown"
}

// ---------------------------------------------------------------------------
// fakeTab
// ---------------------------------------------------------------------------

// fakeTab records calls and replays canned page behavior.
type fakeTab struct {
	mu sync.Mutex

	// Canned behavior
	measurements  []Measurement // successive measure results; the last one repeats
	navigateErr   error
	navigateBlock bool // block until ctx is done
	evalErr       map[string]error
	missingTarget bool // normalize scripts report false
	styleErr      error
	viewportErr   error
	pdfErr        error
	pdfBody       []byte // nil = valid one-page PDF sized from the request
	shotErr       error
	closeErr      error
	panicOn       string // method or script name

	// Recorded
	calls     []string
	urls      []string
	styles    []string
	viewports []Size
	evalArgs  map[string][]any
	pdfReq    *proto.PagePrintToPDF
	shotReq   *proto.PageCaptureScreenshot
	measured  int
	closed    int
}

func newFakeTab(m ...Measurement) *fakeTab {
	return &fakeTab{measurements: m}
}

func (f *fakeTab) record(call string) {
	f.calls = append(f.calls, call)
	if f.panicOn == call {
		panic("fake panic in " + call)
	}
}

func (f *fakeTab) Navigate(ctx context.Context, url string, _ time.Duration) error {
	f.mu.Lock()
	f.record("navigate")
	f.urls = append(f.urls, url)
	block, err := f.navigateBlock, f.navigateErr
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeTab) Evaluate(_ context.Context, script string, out any, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := scriptName(script)
	f.record(name)
	if f.evalArgs == nil {
		f.evalArgs = make(map[string][]any)
	}
	f.evalArgs[name] = args

	if err := f.evalErr[name]; err != nil {
		return err
	}

	switch p := out.(type) {
	case *Measurement:
		*p = f.nextMeasurement()
	case *bool:
		*p = !f.missingTarget
	}
	return nil
}

func (f *fakeTab) nextMeasurement() Measurement {
	if len(f.measurements) == 0 {
		return Measurement{}
	}
	i := min(f.measured, len(f.measurements)-1)
	f.measured++
	return f.measurements[i]
}

func (f *fakeTab) AddStyle(_ context.Context, css string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("style")
	f.styles = append(f.styles, css)
	return f.styleErr
}

func (f *fakeTab) SetViewport(_ context.Context, width, height int, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("viewport")
	f.viewports = append(f.viewports, Size{Width: width, Height: height})
	return f.viewportErr
}

func (f *fakeTab) PrintPDF(_ context.Context, req *proto.PagePrintToPDF) (io.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pdf")
	f.pdfReq = req
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	if f.pdfBody != nil {
		return bytes.NewReader(f.pdfBody), nil
	}
	return bytes.NewReader(pdftest.Blank(1,
		*req.PaperWidth*pdfinfo.PointsPerInch,
		*req.PaperHeight*pdfinfo.PointsPerInch)), nil
}

func (f *fakeTab) Screenshot(_ context.Context, req *proto.PageCaptureScreenshot) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("screenshot")
	f.shotReq = req
	if f.shotErr != nil {
		return nil, f.shotErr
	}
	return []byte("\x89PNG fake image"), nil
}

func (f *fakeTab) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return f.closeErr
}

func (f *fakeTab) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// ---------------------------------------------------------------------------
// fakeBrowser
// ---------------------------------------------------------------------------

// fakeBrowser hands out tabs built by newTab and counts opens and closes.
type fakeBrowser struct {
	mu      sync.Mutex
	newTab  func() *fakeTab
	openErr error
	tabs    []*fakeTab
	closed  int
}

func (b *fakeBrowser) OpenTab(context.Context) (tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return nil, b.openErr
	}
	t := newFakeTab()
	if b.newTab != nil {
		t = b.newTab()
	}
	b.tabs = append(b.tabs, t)
	return t, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return nil
}

func (b *fakeBrowser) tabCounts() (opened, closed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tabs {
		t.mu.Lock()
		closed += t.closed
		t.mu.Unlock()
	}
	return len(b.tabs), closed
}

func (b *fakeBrowser) closeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// ---------------------------------------------------------------------------
// fakeFactory
// ---------------------------------------------------------------------------

// fakeFactory launches fakeBrowsers for a SessionPool.
type fakeFactory struct {
	mu        sync.Mutex
	newTab    func() *fakeTab
	launchErr error
	browsers  []*fakeBrowser
}

func (f *fakeFactory) launch(context.Context) (browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	b := &fakeBrowser{newTab: f.newTab}
	f.browsers = append(f.browsers, b)
	return b, nil
}

func (f *fakeFactory) launched() []*fakeBrowser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeBrowser(nil), f.browsers...)
}

// tabTotals sums tab opens and closes over every launched browser.
func (f *fakeFactory) tabTotals() (opened, closed int) {
	for _, b := range f.launched() {
		o, c := b.tabCounts()
		opened += o
		closed += c
	}
	return opened, closed
}

// ---------------------------------------------------------------------------
// Verifier and observer stubs
// ---------------------------------------------------------------------------

type stubVerifier struct{ err error }

func (s stubVerifier) Verify(string, Canvas) error { return s.err }

type recordingObserver struct {
	mu      sync.Mutex
	reports []Report
}

func (r *recordingObserver) ObserveExport(rep Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func (r *recordingObserver) all() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Report(nil), r.reports...)
}

// found is a shorthand for a measurement of a present content group.
func found(x, y, w, h float64) Measurement {
	return Measurement{Box: BoundingBox{X: x, Y: y, Width: w, Height: h}, Found: true}
}
