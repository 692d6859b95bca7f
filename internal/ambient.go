package internal

import (
	"fmt"
	"slices"

	"github.com/dmitrymomot/portal/pkg/content"
)

// DayLayout formats Ambient.Day.
const DayLayout = "02.01.06"

// Ambient is the implicit rendering state templates read without being passed
// it: the current item and the date markers derived from it.
type Ambient struct {
	// Item is nil outside of any loop.
	Item *content.Item
	// Day is Item's date formatted with DayLayout, or "" when unknown.
	Day string
	// PreviousDay is the last day a template marked as printed.
	PreviousDay string
}

// ID returns the current item's id or 0.
func (a Ambient) ID() int64 {
	if a.Item == nil {
		return 0
	}
	return a.Item.ID
}

// Snapshot is the part of Ambient saved when a loop starts.
type Snapshot struct {
	Item        *content.Item
	PreviousDay string
}

// Token identifies one Enter call. It is only valid for the matching Exit.
type Token struct {
	name string
	seq  uint64
}

// Name returns the loop name the token was issued for.
func (t Token) Name() string {
	return t.name
}

type frame struct {
	token    Token
	snapshot Snapshot
}

// CursorContext holds the ambient state of one request and a stack of
// snapshots, one per active loop. Frames nest strictly: the most recent Enter
// is the first to be restored. It is not safe for concurrent use.
type CursorContext struct {
	ambient Ambient
	frames  []frame
	seq     uint64
}

// NewCursorContext returns an empty context with no current item.
func NewCursorContext() *CursorContext {
	return &CursorContext{}
}

// Current returns the ambient state.
func (c *CursorContext) Current() Ambient {
	return c.ambient
}

// Depth returns the number of active frames.
func (c *CursorContext) Depth() int {
	return len(c.frames)
}

// Active reports whether a frame for name is on the stack.
func (c *CursorContext) Active(name string) bool {
	return c.index(name) >= 0
}

// SetItem makes it the current item.
func (c *CursorContext) SetItem(it content.Item) {
	c.ambient.Item = &it
	c.ambient.Day = dayOf(c.ambient.Item)
}

// NewDay reports whether the current item's day differs from the last printed
// one and marks it as printed.
func (c *CursorContext) NewDay() bool {
	if c.ambient.Day == "" || c.ambient.Day == c.ambient.PreviousDay {
		return false
	}
	c.ambient.PreviousDay = c.ambient.Day
	return true
}

// Enter saves the ambient state for the loop name and returns the token that
// restores it.
func (c *CursorContext) Enter(name string) (Token, error) {
	if c.Active(name) {
		return Token{}, fmt.Errorf("%w: loop %q is already active", ErrInvalidState, name)
	}
	c.seq++
	tok := Token{name: name, seq: c.seq}
	c.frames = append(c.frames, frame{
		token: tok,
		snapshot: Snapshot{
			Item:        c.ambient.Item,
			PreviousDay: c.ambient.PreviousDay,
		},
	})
	return tok, nil
}

// Exit restores the state saved by the Enter that issued tok. tok must belong
// to the innermost frame.
func (c *CursorContext) Exit(tok Token) error {
	n := len(c.frames)
	if n == 0 || c.frames[n-1].token != tok {
		return fmt.Errorf("%w: exit of %q out of order", ErrInvalidState, tok.name)
	}
	c.restore(c.frames[n-1].snapshot)
	c.frames = c.frames[:n-1]
	return nil
}

// Break unwinds the frame of name and every frame entered after it, restoring
// the state saved when name was entered.
func (c *CursorContext) Break(name string) error {
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("%w: loop %q is not active", ErrInvalidState, name)
	}
	c.restore(c.frames[i].snapshot)
	c.frames = slices.Delete(c.frames, i, len(c.frames))
	return nil
}

func (c *CursorContext) restore(s Snapshot) {
	c.ambient = Ambient{
		Item:        s.Item,
		Day:         dayOf(s.Item),
		PreviousDay: s.PreviousDay,
	}
}

func (c *CursorContext) index(name string) int {
	return slices.IndexFunc(c.frames, func(f frame) bool {
		return f.token.name == name
	})
}

func dayOf(it *content.Item) string {
	if it == nil || it.Date.IsZero() {
		return ""
	}
	return it.Date.Format(DayLayout)
}
