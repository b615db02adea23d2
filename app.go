package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"live-ocrs/internal/dict"
	"live-ocrs/internal/engine"
	"live-ocrs/internal/hotkey"
	"live-ocrs/internal/ocr"
	"live-ocrs/internal/paragraph"
	"live-ocrs/internal/screenshot"
	"live-ocrs/internal/tray"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Config is the persisted application configuration.
type Config struct {
	Hotkey            string  `json:"hotkey"`
	Backend           string  `json:"backend"` // "tesseract" or "remote"
	Language          string  `json:"language"`
	RemoteURL         string  `json:"remote_url"`
	RemoteToken       string  `json:"remote_token"`
	RemoteTimeoutSecs int     `json:"remote_timeout_seconds"`
	MaxPixels         int     `json:"max_pixels"`
	ImagePreprocess   bool    `json:"image_preprocess"`
	MaxLineGap        float64 `json:"max_line_gap"`
	MaxIndent         float64 `json:"max_indent"`
	DictPath          string  `json:"dict_path"`
	CursorSampleMs    int     `json:"cursor_sample_ms"`
}

func defaultConfig() Config {
	defaults := paragraph.DefaultConfig()
	return Config{
		Hotkey:            "alt+x",
		Backend:           "tesseract",
		Language:          "chi_sim",
		RemoteTimeoutSecs: 30,
		MaxPixels:         2048 * 2048,
		ImagePreprocess:   false,
		MaxLineGap:        defaults.MaxLineGap,
		MaxIndent:         defaults.MaxIndent,
		CursorSampleMs:    20,
	}
}

// App wires the detection engine to the Wails shell: hotkey, cursor
// sampling, tray, clipboard, and the event bridge to the frontend.
type App struct {
	ctx        context.Context
	config     Config
	configPath string
	log        *slog.Logger
	mu         sync.RWMutex
	hotkeys    bool // service toggle from the tray
	quitting   bool

	dictionary *dict.Dictionary
	ocrEngine  *engine.Engine
	capturer   engine.Capturer
	hotkeyMgr  *hotkey.Manager
	cursor     *hotkey.CursorTracker
	trayIcon   *tray.SystemTray

	// emit forwards one event to the frontend; the default goes through
	// the Wails event bridge.
	emit func(name string, payload any)
}

// NewApp creates the application shell.
func NewApp() *App {
	a := &App{
		config:  defaultConfig(),
		hotkeys: true,
		log:     slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	a.emit = func(name string, payload any) {
		runtime.EventsEmit(a.ctx, name, payload)
	}
	return a
}

// configDir resolves the per-user configuration directory.
func configDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "LiveOCR")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".liveocr")
	}
	exe, _ := os.Executable()
	return filepath.Dir(exe)
}

// startup is the Wails OnStartup hook: load config, lexicon and engine,
// then begin listening for the hotkey and cursor movement.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	dir := configDir()
	os.MkdirAll(dir, 0o755)
	a.configPath = filepath.Join(dir, "config.json")
	a.loadConfig()

	a.dictionary = a.loadLexicon(dir)
	a.capturer = screenshot.NewCapturer()
	a.rebuildEngine()

	a.hotkeyMgr = hotkey.NewManager(a.config.Hotkey, a.log)
	a.hotkeyMgr.OnToggle = a.onHotkey
	go func() {
		if err := a.hotkeyMgr.Start(); err != nil {
			a.log.Error("hotkey listener unavailable", "error", err)
		}
	}()

	a.cursor = hotkey.NewCursorTracker(time.Duration(a.config.CursorSampleMs) * time.Millisecond)
	a.cursor.OnMove = a.onCursorMove
	a.cursor.Start()

	a.initTray()
	a.log.Info("liveocr started", "backend", a.config.Backend, "hotkey", a.config.Hotkey, "lexicon_keys", a.dictionary.Len())
}

// loadLexicon loads the CC-CEDICT export next to the executable unless
// the config points elsewhere. A missing lexicon is not fatal: lookups
// just come back empty.
func (a *App) loadLexicon(cacheBase string) *dict.Dictionary {
	path := a.config.DictPath
	if path == "" {
		exe, _ := os.Executable()
		path = filepath.Join(filepath.Dir(exe), "data", "cedict.json")
	}
	d, err := dict.Load(path, filepath.Join(cacheBase, "cache"))
	if err != nil {
		a.log.Error("lexicon unavailable", "path", path, "error", err)
		return dict.Empty()
	}
	return d
}

// rebuildEngine constructs the detection engine from the current
// config. Called at startup and when backend settings change; the
// state machine restarts in Disabled.
func (a *App) rebuildEngine() {
	assembler := paragraph.Config{
		MaxLineGap: a.config.MaxLineGap,
		MaxIndent:  a.config.MaxIndent,
	}

	var backend ocr.Backend
	switch a.config.Backend {
	case "remote":
		backend = ocr.NewRemote(ocr.RemoteConfig{
			URL:       a.config.RemoteURL,
			AuthToken: a.config.RemoteToken,
			Timeout:   time.Duration(a.config.RemoteTimeoutSecs) * time.Second,
			MaxPixels: a.config.MaxPixels,
		})
	default:
		backend = ocr.NewTesseract(ocr.TesseractConfig{
			Language:   a.config.Language,
			MaxPixels:  a.config.MaxPixels,
			Preprocess: a.config.ImagePreprocess,
		})
	}
	if !backend.Available() {
		a.log.Warn("inference backend not available", "backend", a.config.Backend)
	}

	a.mu.Lock()
	old := a.ocrEngine
	a.ocrEngine = engine.New(a.capturer, backend, assembler, a.dictionary, a, a.log)
	a.mu.Unlock()
	if old != nil {
		// Announce the reset so the frontend drops stale paragraphs.
		old.Disable()
		old.Close()
	}
}

func (a *App) currentEngine() *engine.Engine {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ocrEngine
}

// shutdown is the Wails OnShutdown hook.
func (a *App) shutdown(ctx context.Context) {
	if a.cursor != nil {
		a.cursor.Stop()
	}
	if a.hotkeyMgr != nil {
		a.hotkeyMgr.Stop()
	}
	if a.trayIcon != nil {
		a.trayIcon.Close()
	}
	if eng := a.currentEngine(); eng != nil {
		eng.Close()
	}
	a.saveConfig()
}

// beforeClose hides the settings window to the tray instead of quitting.
func (a *App) beforeClose(ctx context.Context) (prevent bool) {
	if a.quitting {
		return false
	}
	runtime.WindowHide(ctx)
	return true
}

func (a *App) initTray() {
	a.trayIcon = tray.NewSystemTray()
	a.trayIcon.OnSettings = func() {
		runtime.WindowShow(a.ctx)
	}
	a.trayIcon.OnToggle = func(enabled bool) {
		a.mu.Lock()
		a.hotkeys = enabled
		a.mu.Unlock()
		if !enabled {
			// Pausing the service also drops any active results.
			a.currentEngine().Disable()
		}
	}
	a.trayIcon.OnQuit = func() {
		a.quitting = true
		runtime.Quit(a.ctx)
	}
	go a.trayIcon.Run()
}

// onHotkey handles the global chord. Runs on its own goroutine (the
// hook fires callbacks off-thread), so the detection pass can block
// here without stalling the key hook.
func (a *App) onHotkey() {
	a.mu.RLock()
	enabled := a.hotkeys
	a.mu.RUnlock()
	if !enabled {
		return
	}
	a.currentEngine().Toggle()
}

func (a *App) onCursorMove(x, y int) {
	a.currentEngine().HoverAt(x, y)
}

// ---- engine.Publisher over the Wails event bridge ----

func (a *App) StateChanged(state engine.State) {
	a.emit("state-changed", state.String())
}

func (a *App) OCRChanged(texts []string) {
	a.emit("ocr-changed", texts)
}

func (a *App) DefinitionsChanged(defs []dict.Definition) {
	a.emit("definitions-changed", defs)
}

// ---- methods bound to the frontend ----

// Toggle drives the same transition as the global hotkey.
func (a *App) Toggle() {
	a.currentEngine().Toggle()
}

// DetectionState returns "disabled", "detecting" or "enabled".
func (a *App) DetectionState() string {
	return a.currentEngine().State().String()
}

// LastError returns the most recent detection failure, if any.
func (a *App) LastError() string {
	return a.currentEngine().LastError()
}

// TooltipAnchor is the advisory placement for the hover tooltip.
type TooltipAnchor struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Visible bool `json:"visible"`
}

// ContentSizeChanged re-anchors the tooltip for its rendered size.
func (a *App) ContentSizeChanged(width, height int) TooltipAnchor {
	x, y, visible := a.currentEngine().AnchorTooltip(width, height)
	return TooltipAnchor{X: x, Y: y, Visible: visible}
}

// CopyParagraph puts one paragraph's full text on the clipboard and
// returns it.
func (a *App) CopyParagraph(index int) (string, error) {
	text, ok := a.currentEngine().ParagraphText(index)
	if !ok {
		return "", fmt.Errorf("no paragraph at index %d", index)
	}
	if err := runtime.ClipboardSetText(a.ctx, text); err != nil {
		return "", fmt.Errorf("clipboard write: %w", err)
	}
	return text, nil
}

// GetConfig returns the current configuration.
func (a *App) GetConfig() Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// SaveConfig persists new settings and applies them live.
func (a *App) SaveConfig(cfg Config) error {
	a.mu.Lock()
	old := a.config
	a.config = cfg
	a.mu.Unlock()

	if a.hotkeyMgr != nil && old.Hotkey != cfg.Hotkey {
		a.hotkeyMgr.UpdateChord(cfg.Hotkey)
	}
	if backendChanged(old, cfg) {
		a.rebuildEngine()
	}
	return a.saveConfig()
}

func backendChanged(old, cfg Config) bool {
	return old.Backend != cfg.Backend ||
		old.Language != cfg.Language ||
		old.RemoteURL != cfg.RemoteURL ||
		old.RemoteToken != cfg.RemoteToken ||
		old.RemoteTimeoutSecs != cfg.RemoteTimeoutSecs ||
		old.MaxPixels != cfg.MaxPixels ||
		old.ImagePreprocess != cfg.ImagePreprocess ||
		old.MaxLineGap != cfg.MaxLineGap ||
		old.MaxIndent != cfg.MaxIndent
}

func (a *App) loadConfig() {
	data, err := os.ReadFile(a.configPath)
	if err != nil {
		return // first run, keep defaults
	}
	if err := json.Unmarshal(data, &a.config); err != nil {
		a.log.Warn("config file unreadable, using defaults", "error", err)
		a.config = defaultConfig()
	}
}

func (a *App) saveConfig() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, err := json.MarshalIndent(a.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.configPath, data, 0o644)
}
