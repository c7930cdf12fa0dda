// Package preview turns card images into ANSI terminal art.
package preview

import (
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Default art size in terminal cells
const (
	DefaultWidth  = 40
	DefaultHeight = 32
)

// ImageToAnsi converts an image to ANSI art, each cell drawn as an upper
// half block with the top pixels as foreground and the bottom as background.
func ImageToAnsi(img image.Image, width, height int, trueColor bool) (string, error) {
	if img == nil {
		return "", fmt.Errorf("no image to convert")
	}
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("invalid art size %dx%d", width, height)
	}

	// doubled for half-block characters
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buffer strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			col1, _ := colorful.MakeColor(colorAt(resized, x, y))
			col2, _ := colorful.MakeColor(colorAt(resized, x+1, y))
			col3, _ := colorful.MakeColor(colorAt(resized, x, y+1))
			col4, _ := colorful.MakeColor(colorAt(resized, x+1, y+1))

			fg := toRGBA(averageColor(col1, col2))
			bg := toRGBA(averageColor(col3, col4))
			buffer.WriteString(ansiCell('▀', fg, bg, trueColor))
		}
		buffer.WriteString("\n")
	}

	return buffer.String(), nil
}

// colorAt returns the color at a coordinate, black when out of bounds
func colorAt(img image.Image, x, y int) color.Color {
	bounds := img.Bounds()
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		return img.At(bounds.Min.X+x, bounds.Min.Y+y)
	}
	return color.RGBA{0, 0, 0, 255}
}

func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	count := float64(len(colors))
	return colorful.Color{R: r / count, G: g / count, B: b / count}
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// ansiCell formats a character with 24-bit color codes, or plain when
// trueColor is off
func ansiCell(char rune, fg, bg color.RGBA, trueColor bool) string {
	if !trueColor {
		return string(char)
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
		fg.R, fg.G, fg.B, bg.R, bg.G, bg.B, char)
}

// StripAnsi removes ANSI escape sequences from a string
func StripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}

// VisibleWidth is the number of terminal columns a line occupies
func VisibleWidth(s string) int {
	return len([]rune(StripAnsi(s)))
}

// WrapText wraps text to width columns on word boundaries
func WrapText(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var result []string
	var line string
	for _, word := range words {
		switch {
		case line == "":
			line = word
		case len([]rune(line))+1+len([]rune(word)) <= width:
			line += " " + word
		default:
			result = append(result, line)
			line = word
		}
	}
	if line != "" {
		result = append(result, line)
	}
	return result
}

// Cache stores generated art on disk keyed by the image reference
type Cache struct {
	Dir string
}

// NewCache returns a cache rooted at dir
func NewCache(dir string) *Cache {
	return &Cache{Dir: dir}
}

// Path returns the cache file used for ref
func (c *Cache) Path(ref string) string {
	return filepath.Join(c.Dir, fmt.Sprintf("%x.ansi", md5.Sum([]byte(ref))))
}

// Load returns cached art for ref, calling generate and storing its output
// on a miss. A failed write does not fail the call.
func (c *Cache) Load(ref string, generate func() (string, error)) (string, error) {
	path := c.Path(ref)
	if data, err := os.ReadFile(path); err == nil {
		return string(data), nil
	}

	art, err := generate()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.Dir, 0755); err == nil {
		_ = os.WriteFile(path, []byte(art), 0644)
	}
	return art, nil
}
