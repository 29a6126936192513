// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Sent captures one outgoing message.
type Sent struct {
	Text      string
	Markup    *tele.ReplyMarkup
	ParseMode tele.ParseMode
}

// Context implements the parts of tele.Context used by bot handlers.
// Calling any other method panics on the nil embedded interface.
type Context struct {
	tele.Context

	// SendErr, when set, is returned by Send and nothing is recorded.
	SendErr error

	mu     sync.Mutex
	update tele.Update
	store  map[string]any
	log    *transcript
}

type transcript struct {
	mu   sync.Mutex
	sent []Sent
}

// NewText builds a context for a private text message.
func NewText(chatID, userID int64, text string) *Context {
	return &Context{
		update: tele.Update{
			ID: int(chatID % 100000),
			Message: &tele.Message{
				Text:   text,
				Chat:   &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
				Sender: &tele.User{ID: userID, Username: fmt.Sprintf("user%d", userID)},
			},
		},
		store: make(map[string]any),
		log:   &transcript{},
	}
}

// WithText returns a fresh update for the same chat and user carrying text.
// Messages sent through either context land in one shared transcript.
func (c *Context) WithText(text string) *Context {
	msg := c.update.Message
	next := NewText(msg.Chat.ID, msg.Sender.ID, text)
	next.update.ID = c.update.ID + 1
	next.log = c.log
	return next
}

func (c *Context) Update() tele.Update   { return c.update }
func (c *Context) Message() *tele.Message { return c.update.Message }
func (c *Context) Chat() *tele.Chat       { return c.update.Message.Chat }
func (c *Context) Sender() *tele.User     { return c.update.Message.Sender }
func (c *Context) Recipient() tele.Recipient {
	return c.update.Message.Chat
}
func (c *Context) Text() string { return c.update.Message.Text }

func (c *Context) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = val
}

func (c *Context) Send(what interface{}, opts ...interface{}) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	s := Sent{Text: fmt.Sprint(what)}
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil {
				s.ParseMode = v.ParseMode
				if v.ReplyMarkup != nil {
					s.Markup = v.ReplyMarkup
				}
			}
		case *tele.ReplyMarkup:
			s.Markup = v
		case tele.ParseMode:
			s.ParseMode = v
		}
	}
	c.log.mu.Lock()
	c.log.sent = append(c.log.sent, s)
	c.log.mu.Unlock()
	return nil
}

// Sent returns a copy of every message sent so far.
func (c *Context) Sent() []Sent {
	c.log.mu.Lock()
	defer c.log.mu.Unlock()
	return append([]Sent(nil), c.log.sent...)
}

// Last returns the most recent message, or a zero Sent.
func (c *Context) Last() Sent {
	sent := c.Sent()
	if len(sent) == 0 {
		return Sent{}
	}
	return sent[len(sent)-1]
}

// Texts returns the text of every sent message.
func (c *Context) Texts() []string {
	sent := c.Sent()
	out := make([]string, len(sent))
	for i, s := range sent {
		out[i] = s.Text
	}
	return out
}
