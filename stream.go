package qaboard

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/i18n"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Stream message types.
const (
	msgQuery    = "query"    // client: select the board page to receive
	msgWatch    = "watch"    // client: receive the comments of postId ("" stops)
	msgPosts    = "posts"    // server: board page snapshot
	msgComments = "comments" // server: comment tree snapshot
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// streamRequest is a message from a client.
type streamRequest struct {
	Type     string `json:"type"`
	PostID   string `json:"postId"`
	Q        string `json:"q"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Answerer string `json:"answerer"`
	Page     int    `json:"page"`
}

// streamMessage is a message to a client.
type streamMessage struct {
	Type     string        `json:"type"`
	Posts    *PageJSON     `json:"posts,omitempty"`
	Comments *CommentsJSON `json:"comments,omitempty"`
}

// hub fans the shared posts cache out to every connected client.
type hub struct {
	app *App

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
}

func newHub(a *App) *hub {
	return &hub{app: a, clients: make(map[*streamClient]struct{})}
}

func (h *hub) add(c *streamClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *hub) remove(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// broadcastPosts marks the board stale for every client.
func (h *hub) broadcastPosts() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.markPosts()
	}
}

// close disconnects every client and refuses new ones.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.stop()
	}
}

// Len returns the number of connected clients.
func (h *hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// streamClient is one websocket connection. Pending snapshots coalesce:
// a slow client skips intermediate states and receives the latest one.
type streamClient struct {
	conn   *websocket.Conn
	feed   *board.CommentFeed
	author string
	token  string
	lang   i18n.Lang

	mu       sync.Mutex
	crit     board.Criteria
	page     int
	posts    bool
	comments *CommentsJSON
	watchGen uint64

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func (c *streamClient) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *streamClient) markPosts() {
	c.mu.Lock()
	c.posts = true
	c.mu.Unlock()
	c.notify()
}

// resetComments drops the pending comment tree and starts a new watch
// generation. Trees of earlier generations are discarded by setComments.
func (c *streamClient) resetComments() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchGen++
	c.comments = nil
	return c.watchGen
}

func (c *streamClient) setComments(gen uint64, tree CommentsJSON) {
	c.mu.Lock()
	if gen != c.watchGen {
		c.mu.Unlock()
		return
	}
	c.comments = &tree
	c.mu.Unlock()
	c.notify()
}

func (c *streamClient) stop() {
	c.once.Do(func() { close(c.done) })
}

// session is re-derived on every snapshot so an expired admin token stops
// granting capabilities to an open connection.
func (a *App) streamSession(c *streamClient) board.Session {
	return board.Session{
		Admin:  a.tokens.Verify(c.token) == nil,
		Author: c.author,
	}
}

func (a *App) handleStream(ec echo.Context) error {
	conn, err := upgrader.Upgrade(ec.Response(), ec.Request(), nil)
	if err != nil {
		// Upgrade has already answered the request.
		ec.Logger().Warnf("problem initiating websocket: %v", err)
		return nil
	}
	c := &streamClient{
		conn:   conn,
		feed:   a.Data.NewCommentFeed(),
		author: sessionString(ec, sessionAuthor),
		token:  sessionString(ec, sessionToken),
		lang:   a.Lang(ec),
		page:   1,
		posts:  true,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	defer conn.Close()
	defer c.feed.Close()
	if !a.hub.add(c) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		return nil
	}
	defer a.hub.remove(c)
	c.notify()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	requests := a.receiveRequests(c)
	for {
		select {
		case <-c.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return nil
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			a.applyRequest(ctx, c, req)
		case <-c.wake:
			if err := a.flush(c); err != nil {
				ec.Logger().Debugf("websocket write: %v", err)
				return nil
			}
		}
	}
}

// receiveRequests reads client messages until the connection fails or
// closes, then closes the returned channel.
func (a *App) receiveRequests(c *streamClient) <-chan streamRequest {
	ch := make(chan streamRequest)
	go func() {
		defer close(ch)
		for {
			var req streamRequest
			if err := c.conn.ReadJSON(&req); err != nil {
				return
			}
			select {
			case ch <- req:
			case <-c.done:
				return
			}
		}
	}()
	return ch
}

func (a *App) applyRequest(ctx context.Context, c *streamClient, req streamRequest) {
	switch req.Type {
	case msgQuery:
		c.mu.Lock()
		c.crit = board.Criteria{Search: req.Q, Category: req.Category, Status: req.Status, Answerer: req.Answerer}
		c.page = req.Page
		c.mu.Unlock()
		c.markPosts()
	case msgWatch:
		gen := c.resetComments()
		if req.PostID == "" {
			c.feed.Close()
			return
		}
		postID := req.PostID
		c.feed.Watch(ctx, postID, func(comments []board.Comment) {
			threads := board.BuildTree(comments, a.streamSession(c), a.Data.TreeOptions())
			c.setComments(gen, toCommentsJSON(postID, threads))
		})
	}
}

// flush writes the pending snapshots of c.
func (a *App) flush(c *streamClient) error {
	c.mu.Lock()
	sendPosts := c.posts
	crit, page := c.crit, c.page
	comments := c.comments
	c.posts = false
	c.comments = nil
	c.mu.Unlock()

	if sendPosts {
		sess := a.streamSession(c)
		sel := board.Select(a.Data.Posts(), crit, page)
		out := PageJSON{
			Items:      make([]PostJSON, 0, len(sel.Items)),
			Page:       sel.Page,
			TotalPages: sel.TotalPages,
			Total:      sel.Total,
		}
		for _, p := range sel.Items {
			out.Items = append(out.Items, a.postJSON(p, sess, c.lang))
		}
		if err := c.write(streamMessage{Type: msgPosts, Posts: &out}); err != nil {
			return err
		}
	}
	if comments != nil {
		if err := c.write(streamMessage{Type: msgComments, Comments: comments}); err != nil {
			return err
		}
	}
	return nil
}

func (c *streamClient) write(m streamMessage) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(m)
}
