package display

import (
	"fmt"
	"unsafe"

	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/capture"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/logger"
	"github.com/Aerysaint/one-device-to-rule-them-all/pkg/thread"
	"github.com/veandco/go-sdl2/sdl"
)

// SDL renders frames into a resizable window with a streaming texture.
// SDL video calls are only valid on the thread that initialized it, so
// every entry point funnels through thread.Call.
//
// Keys: f fullscreen, w windowed, q or ESC quit.
type SDL struct {
	win *sdl.Window
	ren *sdl.Renderer
	tex *sdl.Texture

	tw, th     int32
	fullscreen bool

	// OnQuit fires once when the user asks to close the window.
	OnQuit func()
	log    *logger.Logger
}

func NewSDL(title string, w, h int, fullscreen bool, log *logger.Logger) (*SDL, error) {
	s := &SDL{fullscreen: fullscreen, log: log}
	var err error
	thread.Call(func() {
		if err = sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
			err = fmt.Errorf("sdl: %w", err)
			return
		}
		var flags uint32 = sdl.WINDOW_SHOWN | sdl.WINDOW_RESIZABLE
		if fullscreen {
			flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
		}
		if s.win, err = sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
			int32(w), int32(h), flags); err != nil {
			err = fmt.Errorf("window: %w", err)
			return
		}
		if s.ren, err = sdl.CreateRenderer(s.win, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC); err != nil {
			err = fmt.Errorf("renderer: %w", err)
			return
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SDL) Show(frame *capture.Frame) error {
	var err error
	thread.Call(func() {
		if err = s.ensureTexture(int32(frame.W), int32(frame.H)); err != nil {
			return
		}
		if err = s.tex.Update(nil, unsafe.Pointer(&frame.Pix[0]), frame.W*4); err != nil {
			return
		}
		if err = s.ren.Clear(); err != nil {
			return
		}
		if err = s.ren.Copy(s.tex, nil, nil); err != nil {
			return
		}
		s.ren.Present()
	})
	return err
}

// ensureTexture recreates the streaming texture when the source
// dimensions change mid-stream.
func (s *SDL) ensureTexture(w, h int32) (err error) {
	if s.tex != nil && s.tw == w && s.th == h {
		return nil
	}
	if s.tex != nil {
		_ = s.tex.Destroy()
	}
	if s.tex, err = s.ren.CreateTexture(sdl.PIXELFORMAT_RGBA32, sdl.TEXTUREACCESS_STREAMING, w, h); err != nil {
		return fmt.Errorf("texture: %w", err)
	}
	// keep the source aspect ratio on any window size
	if err = s.ren.SetLogicalSize(w, h); err != nil {
		return err
	}
	s.tw, s.th = w, h
	return nil
}

// Poll drains pending window events; call it from the UI loop.
func (s *SDL) Poll() {
	thread.Call(func() {
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch e := ev.(type) {
			case *sdl.QuitEvent:
				s.quit()
			case *sdl.KeyboardEvent:
				if e.Type != sdl.KEYDOWN {
					continue
				}
				switch e.Keysym.Sym {
				case sdl.K_q, sdl.K_ESCAPE:
					s.quit()
				case sdl.K_f:
					s.setFullscreen(true)
				case sdl.K_w:
					s.setFullscreen(false)
				}
			}
		}
	})
}

func (s *SDL) quit() {
	if s.OnQuit != nil {
		s.OnQuit()
		s.OnQuit = nil
	}
}

func (s *SDL) ToggleFullscreen() {
	thread.Call(func() { s.setFullscreen(!s.fullscreen) })
}

func (s *SDL) setFullscreen(on bool) {
	if s.fullscreen == on {
		return
	}
	var flags uint32
	if on {
		flags = sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	if err := s.win.SetFullscreen(flags); err != nil {
		s.log.Error().Err(err).Msg("fullscreen")
		return
	}
	s.fullscreen = on
}

func (s *SDL) Close() (err error) {
	thread.Call(func() {
		if s.tex != nil {
			_ = s.tex.Destroy()
		}
		if s.ren != nil {
			_ = s.ren.Destroy()
		}
		if s.win != nil {
			err = s.win.Destroy()
		}
		sdl.Quit()
	})
	return err
}
