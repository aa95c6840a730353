// Package dashboard provides the desktop window for classifying images and
// the webcam feed.
package dashboard

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"traffic-signal/internal/app"
	"traffic-signal/internal/frame"
	"traffic-signal/internal/history"
	"traffic-signal/internal/signal"
	"traffic-signal/internal/version"
	"traffic-signal/internal/webcam"
	"traffic-signal/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	windowTitle  = "Traffic Signal Recognition"
	historyLimit = 15
)

// Window is the dashboard's main window.
type Window struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs

	preview     *canvas.Image
	placeholder *widget.Label
	banner      *canvas.Text
	bannerBg    *canvas.Rectangle
	counts      *widget.Label
	statusBar   *widget.Label
	detectBtn   *widget.Button
	webcamBtn   *widget.Button
	cameraEntry *widget.Entry
	historyList *widget.List

	recent []history.Entry
}

// New creates the dashboard window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *Window {
	w := &Window{
		Window: fyneApp.NewWindow(windowTitle),
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	w.setupUI()
	w.setupMenus()
	w.setupEventHandlers()
	w.Resize(fyne.NewSize(1000, 720))
	w.SetMaster()

	w.restoreLastImage()
	w.refreshHistory()
	return w
}

func (w *Window) setupUI() {
	w.preview = canvas.NewImageFromImage(nil)
	w.preview.FillMode = canvas.ImageFillContain
	w.preview.SetMinSize(fyne.NewSize(app.PreviewWidth/2, app.PreviewHeight/2))
	w.placeholder = widget.NewLabelWithStyle("Choose an image to begin", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})

	w.banner = canvas.NewText("NO IMAGE", color.White)
	w.banner.Alignment = fyne.TextAlignCenter
	w.banner.TextStyle = fyne.TextStyle{Bold: true}
	w.banner.TextSize = 28
	w.bannerBg = canvas.NewRectangle(color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF})

	w.counts = widget.NewLabel("")
	w.statusBar = widget.NewLabel("Ready")

	chooseBtn := widget.NewButton("Choose Image", w.onChooseImage)
	w.detectBtn = widget.NewButton("Detect", w.onDetect)
	w.detectBtn.Importance = widget.HighImportance
	w.detectBtn.Disable()

	w.cameraEntry = widget.NewEntry()
	w.cameraEntry.SetText(strconv.Itoa(w.prefs.CameraID(0)))
	w.cameraEntry.Validator = func(s string) error {
		if n, err := strconv.Atoi(s); err != nil || n < 0 {
			return fmt.Errorf("camera must be a non-negative integer")
		}
		return nil
	}
	w.webcamBtn = widget.NewButton("Start Webcam", w.onToggleWebcam)

	w.historyList = widget.NewList(
		func() int { return len(w.recent) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(w.recent) {
				return
			}
			e := w.recent[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%s  %-6s  %s",
				e.CreatedAt.Local().Format("15:04:05"), e.Source, e.Signal.Label()))
		},
	)

	controls := container.NewVBox(
		widget.NewLabelWithStyle("Image", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		chooseBtn,
		w.detectBtn,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Webcam", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Camera"), nil, w.cameraEntry),
		w.webcamBtn,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Pixel counts", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		w.counts,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Recent detections", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	)
	sidebar := container.NewBorder(controls, nil, nil, nil, w.historyList)

	bannerArea := container.NewStack(w.bannerBg, container.NewPadded(w.banner))
	previewArea := container.NewBorder(
		bannerArea, // top
		nil,        // bottom
		nil,        // left
		nil,        // right
		container.NewStack(container.NewCenter(w.placeholder), w.preview),
	)

	split := container.NewHSplit(sidebar, previewArea)
	split.SetOffset(0.28)

	w.SetContent(container.NewBorder(
		nil,                              // top
		container.NewPadded(w.statusBar), // bottom
		nil,                              // left
		nil,                              // right
		split,                            // center
	))
}

func (w *Window) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", w.onChooseImage),
		fyne.NewMenuItem("Detect", w.onDetect),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", w.onAbout),
	)
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, helpMenu))
}

func (w *Window) setupEventHandlers() {
	w.state.On(app.EventImageLoaded, func(data interface{}) {
		path, _ := data.(string)
		w.showPreview()
		w.setBanner("READY", color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}, color.White)
		w.counts.SetText("")
		w.detectBtn.Enable()
		w.updateStatus("Loaded " + filepath.Base(path))
	})

	w.state.On(app.EventDetected, func(data interface{}) {
		res := data.(signal.Result)
		w.showPreview()
		w.showResult(res)
		w.updateStatus(fmt.Sprintf("Detected: %s", res.Label))
		w.refreshHistory()
	})

	w.state.On(app.EventWebcamStarted, func(data interface{}) {
		opts := data.(webcam.Options)
		w.webcamBtn.SetText("Stop Webcam")
		w.cameraEntry.Disable()
		w.updateStatus(fmt.Sprintf("Webcam %d running (press '%c' in the preview window to stop)", opts.CameraID, opts.ExitKey))
	})

	w.state.On(app.EventWebcamResult, func(data interface{}) {
		w.showResult(data.(signal.Result))
	})

	w.state.On(app.EventWebcamStopped, func(data interface{}) {
		stats := data.(webcam.Stats)
		w.webcamBtn.SetText("Start Webcam")
		w.cameraEntry.Enable()
		w.updateStatus("Webcam stopped: " + stats.String())
		w.refreshHistory()
	})

	w.state.On(app.EventError, func(data interface{}) {
		if err, ok := data.(error); ok {
			dialog.ShowError(err, w.Window)
		}
	})

	w.SetCloseIntercept(func() {
		w.state.StopWebcam()
		w.SavePreferences()
		w.Close()
	})
}

func (w *Window) showPreview() {
	img := w.state.Preview()
	if img == nil {
		return
	}
	w.placeholder.Hide()
	w.preview.Image = img
	w.preview.Refresh()
}

func (w *Window) showResult(res signal.Result) {
	fg := color.Color(color.Black)
	if res.Key == signal.KeyNone {
		fg = color.White
	}
	bg := res.Color
	if res.Key == signal.KeyNone {
		bg = color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}
	}
	w.setBanner(res.Label, bg, fg)
	w.counts.SetText(fmt.Sprintf("Red:    %d\nYellow: %d\nGreen:  %d", res.Counts.Red, res.Counts.Yellow, res.Counts.Green))
}

func (w *Window) setBanner(text string, bg, fg color.Color) {
	w.banner.Text = text
	w.banner.Color = fg
	w.banner.Refresh()
	w.bannerBg.FillColor = bg
	w.bannerBg.Refresh()
}

func (w *Window) updateStatus(text string) {
	w.statusBar.SetText(text)
}

func (w *Window) refreshHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	entries, err := w.state.History(ctx, historyLimit)
	if err != nil {
		w.updateStatus("History unavailable: " + err.Error())
		return
	}
	w.recent = entries
	w.historyList.Refresh()
}

// lastDir returns the last used directory as a ListableURI, or nil.
func (w *Window) lastDir() fyne.ListableURI {
	path := w.prefs.LastDirectory()
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (w *Window) restoreLastImage() {
	path := w.prefs.LastImage()
	if path == "" {
		return
	}
	if err := w.state.LoadImage(path); err != nil {
		w.updateStatus(fmt.Sprintf("Could not reopen %s: %v", filepath.Base(path), err))
	}
}

func (w *Window) onChooseImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()

		if err := w.LoadImage(path); err != nil {
			dialog.ShowError(err, w.Window)
		}
	}, w.Window)

	exts := make([]string, len(frame.AllowedExtensions))
	for i, ext := range frame.AllowedExtensions {
		exts[i] = "." + ext
	}
	fd.SetFilter(storage.NewExtensionFileFilter(exts))
	if loc := w.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (w *Window) onDetect() {
	if _, err := w.state.Detect(context.Background()); err != nil {
		dialog.ShowError(err, w.Window)
	}
}

func (w *Window) onToggleWebcam() {
	if w.state.WebcamRunning() {
		w.updateStatus("Stopping webcam...")
		go w.state.StopWebcam()
		return
	}

	if err := w.cameraEntry.Validate(); err != nil {
		dialog.ShowError(err, w.Window)
		return
	}
	id, _ := strconv.Atoi(strings.TrimSpace(w.cameraEntry.Text))
	w.prefs.SetCameraID(id)

	opts := webcam.DefaultOptions()
	opts.CameraID = id
	if err := w.state.StartWebcam(opts); err != nil {
		dialog.ShowError(err, w.Window)
	}
}

func (w *Window) onAbout() {
	dialog.ShowInformation("About "+windowTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Classifies traffic lights as red, yellow or green\n"+
			"from HSV color masks.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			windowTitle, version.Version, version.BuildTime, version.GitCommit),
		w.Window)
}

// SavePreferences writes preferences to disk.
func (w *Window) SavePreferences() {
	if err := w.prefs.Save(); err != nil {
		w.updateStatus("Failed to save preferences: " + err.Error())
	}
}

// SavePreferencesIfChanged writes preferences only when they changed.
func (w *Window) SavePreferencesIfChanged() {
	if err := w.prefs.SaveIfChanged(); err != nil {
		w.updateStatus("Failed to save preferences: " + err.Error())
	}
}

// LoadImage opens path in the dashboard and remembers it.
func (w *Window) LoadImage(path string) error {
	if err := w.state.LoadImage(path); err != nil {
		return err
	}
	w.prefs.SetLastImage(path)
	return nil
}
