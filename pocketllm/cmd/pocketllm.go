// pocketllm/cmd/pocketllm.go
//
// Interactive terminal client for the PocketLLM portal. Starts in guest mode
// with sessions persisted to local files; /login swaps in a portal-backed
// session store without restarting the REPL.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/cache"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/config"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/services/api"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/services/inference"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/services/llm"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/session"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/telemetry"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
	colorutils "github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/color"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/jsonutils"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/logging"
)

// guestIDKey is the file the CLI uses to keep the same guest identity (and
// therefore the same session file) across runs.
const guestIDKey = "guest-id"

type app struct {
	cfg      config.Config
	client   *api.Client // nil when talking to a model directly
	gateway  *inference.Gateway
	recorder *telemetry.Recorder
	files    *session.FileStore

	store     *session.Store
	userID    string
	username  string // empty in guest mode
	currentID string // open session, empty until /new or the first message
}

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	recorder := telemetry.NewRecorder(cfg.TelemetryCapacity)
	defer recorder.Close()

	responseCache := cache.New(time.Duration(cfg.CacheTTLSeconds)*time.Second, cfg.CacheMaxSizeBytes)

	var client *api.Client
	var remote inference.RemoteInference
	if cfg.PortalURL != "" {
		client = api.NewClient(cfg.PortalURL)
		remote = client
	} else {
		model, err := llm.NewFromConfig(llm.Config{
			Provider: cfg.LLMProvider,
			Endpoint: cfg.LLMEndpoint,
			APIKey:   cfg.LLMAPIKey,
			Model:    cfg.LLMModel,
		})
		if err != nil {
			logging.ErrorLogger.Error("llm setup failed", zap.Error(err))
			fmt.Println(colorutils.ColorError("cannot start: " + err.Error()))
			os.Exit(1)
		}
		remote = model
	}

	files, err := session.NewFileStore(cfg.DataDir)
	if err != nil {
		logging.ErrorLogger.Error("data dir unavailable", zap.Error(err))
		fmt.Println(colorutils.ColorError("cannot start: " + err.Error()))
		os.Exit(1)
	}

	a := &app{
		cfg:      cfg,
		client:   client,
		gateway:  inference.New(responseCache, remote, recorder),
		recorder: recorder,
		files:    files,
	}
	if err := a.startGuest(context.Background()); err != nil {
		fmt.Println(colorutils.ColorWarning("guest sessions unavailable: " + err.Error()))
	}

	a.banner()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(colorutils.ColorPrompt("pocketllm> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "/exit" || line == "/quit" {
			fmt.Println("👋 bye")
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if strings.HasPrefix(line, "/") {
			a.dispatch(ctx, line)
		} else {
			a.send(ctx, line)
		}
		cancel()
	}
}

func (a *app) banner() {
	fmt.Println("🎓 PocketLLM — course chat client")
	if a.client != nil {
		fmt.Println("portal:", a.cfg.PortalURL)
	} else {
		fmt.Println("model:", a.cfg.LLMProvider)
	}
	fmt.Printf("guest id %s — type /help for commands, exit to leave\n", a.userID)
}

// startGuest builds a file-backed store under the same guest identity every
// run, so guest history survives restarts.
func (a *app) startGuest(ctx context.Context) error {
	id, ok, err := a.files.Load(guestIDKey)
	if err != nil || !ok || strings.TrimSpace(id) == "" {
		id = "guest-" + uuid.New().String()[:8]
		if saveErr := a.files.Save(guestIDKey, id); saveErr != nil {
			logging.AppLogger.Warn("could not persist guest id", zap.Error(saveErr))
		}
	}
	id = strings.TrimSpace(id)

	store := session.NewLocalStore(a.files, a.recorder)
	// An unreadable session file degrades to an empty store; the error is
	// advisory, the REPL stays usable.
	initErr := store.Initialize(ctx, id)
	a.store = store
	a.userID = id
	a.username = ""
	a.currentID = ""
	return initErr
}

func (a *app) dispatch(ctx context.Context, line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		a.help()
	case "/new":
		a.newSession(ctx)
	case "/sessions":
		a.listSessions()
	case "/open":
		a.openSession(ctx, args)
	case "/history":
		a.history(ctx)
	case "/clear":
		a.clearHistory(ctx)
	case "/delete":
		a.deleteSession(ctx, args)
	case "/refresh":
		a.refresh(ctx)
	case "/stats":
		a.stats()
	case "/login":
		a.login(ctx, args)
	case "/logout":
		a.logout(ctx)
	default:
		fmt.Println(colorutils.ColorWarning("unknown command " + cmd + " — try /help"))
	}
}

func (a *app) help() {
	fmt.Println(`commands:
  /new              open a fresh session
  /sessions         list your sessions
  /open <n|id>      switch to a session
  /history          show the open session's messages
  /clear            clear the open session's history
  /delete [n|id]    delete a session (defaults to the open one)
  /refresh          re-sync the session list
  /stats            response cache and telemetry counters
  /login <user>     sign in to the portal (needs PORTAL_URL)
  /logout           back to guest mode
  exit              leave`)
}

func (a *app) send(ctx context.Context, text string) {
	if a.currentID == "" {
		sess, err := a.store.Create(ctx, a.userID)
		if err != nil {
			fmt.Println(colorutils.ColorError("cannot open session: " + err.Error()))
			return
		}
		a.currentID = sess.SessionID
		fmt.Println(colorutils.ColorInfo("opened session " + sess.SessionID))
	}

	history, err := a.store.GetMessages(ctx, a.userID, a.currentID)
	if err != nil {
		fmt.Println(colorutils.ColorWarning("history may be stale: " + err.Error()))
	}
	userMsg := types.Message{
		MessageID: uuid.New().String(),
		Content:   text,
		Role:      types.RoleUser,
		Timestamp: time.Now().UTC(),
	}
	conversation := append(history, userMsg)

	result, err := a.gateway.Send(ctx, a.currentID, conversation, types.InferenceParameters{})
	if err != nil {
		fmt.Println(colorutils.ColorError("inference failed: " + err.Error()))
		return
	}

	if err := a.store.AppendMessageLocal(a.currentID, userMsg); err != nil {
		fmt.Println(colorutils.ColorWarning("could not record message: " + err.Error()))
	}
	reply := types.Message{
		MessageID: uuid.New().String(),
		Content:   result.Response,
		Role:      types.RoleAssistant,
		Timestamp: time.Now().UTC(),
		IsCached:  result.IsCached,
	}
	if err := a.store.AppendMessageLocal(a.currentID, reply); err != nil {
		fmt.Println(colorutils.ColorWarning("could not record reply: " + err.Error()))
	}

	out := colorutils.ColorAssistant(result.Response)
	if result.IsCached {
		out += " " + colorutils.ColorCached("(cached)")
	}
	fmt.Println(out)
}

func (a *app) newSession(ctx context.Context) {
	sess, err := a.store.Create(ctx, a.userID)
	if err != nil {
		fmt.Println(colorutils.ColorError("cannot create session: " + err.Error()))
		return
	}
	a.currentID = sess.SessionID
	fmt.Println(colorutils.ColorInfo("opened session " + sess.SessionID))
}

func (a *app) listSessions() {
	sessions := a.store.ListAll()
	if len(sessions) == 0 {
		fmt.Println(colorutils.ColorInfo("no sessions yet — just start typing"))
		return
	}
	for i, s := range sessions {
		marker := " "
		if s.SessionID == a.currentID {
			marker = "*"
		}
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s %2d. %s  %s  %s\n", marker, i+1, s.SessionID, title, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func (a *app) openSession(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println(colorutils.ColorWarning("usage: /open <n|id>"))
		return
	}
	id, ok := a.resolveSession(args[0])
	if !ok {
		fmt.Println(colorutils.ColorWarning("no such session " + args[0]))
		return
	}
	a.currentID = id
	fmt.Println(colorutils.ColorInfo("switched to " + id))
	a.history(ctx)
}

func (a *app) history(ctx context.Context) {
	if a.currentID == "" {
		fmt.Println(colorutils.ColorWarning("no open session — /open one or just type"))
		return
	}
	msgs, err := a.store.GetMessages(ctx, a.userID, a.currentID)
	if err != nil {
		fmt.Println(colorutils.ColorWarning("history may be stale: " + err.Error()))
	}
	if len(msgs) == 0 {
		fmt.Println(colorutils.ColorInfo("(empty)"))
		return
	}
	for _, m := range msgs {
		switch m.Role {
		case types.RoleAssistant:
			line := colorutils.ColorAssistant(m.Content)
			if m.IsCached {
				line += " " + colorutils.ColorCached("(cached)")
			}
			fmt.Println("  assistant:", line)
		default:
			fmt.Println("  you:      ", m.Content)
		}
	}
}

func (a *app) clearHistory(ctx context.Context) {
	if a.currentID == "" {
		fmt.Println(colorutils.ColorWarning("no open session"))
		return
	}
	if err := a.store.ClearHistory(ctx, a.currentID); err != nil {
		fmt.Println(colorutils.ColorError("clear failed: " + err.Error()))
		return
	}
	fmt.Println(colorutils.ColorInfo("history cleared"))
}

func (a *app) deleteSession(ctx context.Context, args []string) {
	id := a.currentID
	if len(args) > 0 {
		resolved, ok := a.resolveSession(args[0])
		if !ok {
			fmt.Println(colorutils.ColorWarning("no such session " + args[0]))
			return
		}
		id = resolved
	}
	if id == "" {
		fmt.Println(colorutils.ColorWarning("usage: /delete <n|id>"))
		return
	}
	if err := a.store.Delete(ctx, a.userID, id); err != nil {
		fmt.Println(colorutils.ColorError("delete failed: " + err.Error()))
		return
	}
	if id == a.currentID {
		a.currentID = ""
	}
	fmt.Println(colorutils.ColorInfo("deleted " + id))
}

func (a *app) refresh(ctx context.Context) {
	sessions, err := a.store.Refresh(ctx, a.userID)
	if err != nil {
		fmt.Println(colorutils.ColorWarning("refresh degraded: " + err.Error()))
	}
	fmt.Println(colorutils.ColorInfo(fmt.Sprintf("%d sessions", len(sessions))))
	if a.currentID != "" {
		if _, ok := a.resolveSession(a.currentID); !ok {
			a.currentID = ""
		}
	}
}

func (a *app) stats() {
	fmt.Println(jsonutils.ToJSON(a.gateway.Cache().Stats()))
	fmt.Println(colorutils.ColorInfo(fmt.Sprintf(
		"store: %s mode, %d sessions, user %s", a.store.Mode(), len(a.store.ListAll()), a.store.UserID())))
	fmt.Println(colorutils.ColorInfo(fmt.Sprintf(
		"telemetry: %d events buffered, %d dropped", a.recorder.Len(), a.recorder.Dropped())))
}

func (a *app) login(ctx context.Context, args []string) {
	if a.client == nil {
		fmt.Println(colorutils.ColorWarning("no portal configured — set PORTAL_URL to enable accounts"))
		return
	}
	if len(args) == 0 {
		fmt.Println(colorutils.ColorWarning("usage: /login <username> [email]"))
		return
	}
	username := args[0]
	email := ""
	if len(args) > 1 {
		email = args[1]
	}

	resp, err := a.client.Login(ctx, username, email)
	if err != nil {
		fmt.Println(colorutils.ColorError("login failed: " + err.Error()))
		return
	}

	store := session.NewRemoteStore(a.client, a.recorder)
	if err := store.Initialize(ctx, resp.UserID); err != nil {
		// Degraded start: the account works, the list fills in on /refresh.
		fmt.Println(colorutils.ColorWarning("session list unavailable: " + err.Error()))
	}
	a.store = store
	a.userID = resp.UserID
	a.username = resp.Username
	a.currentID = ""

	fmt.Println(colorutils.ColorInfo("signed in as " + resp.Username))
	if resp.IsAdmin {
		fmt.Println(colorutils.ColorInfo("(admin account)"))
	}
}

func (a *app) logout(ctx context.Context) {
	if a.username == "" {
		fmt.Println(colorutils.ColorWarning("not signed in"))
		return
	}
	if a.client != nil {
		a.client.SetToken("")
	}
	if err := a.startGuest(ctx); err != nil {
		fmt.Println(colorutils.ColorError("guest mode unavailable: " + err.Error()))
		return
	}
	fmt.Println(colorutils.ColorInfo("back to guest mode as " + a.userID))
}

// resolveSession accepts a 1-based index from /sessions, a full session id,
// or an unambiguous id prefix.
func (a *app) resolveSession(arg string) (string, bool) {
	sessions := a.store.ListAll()
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(sessions) {
		return sessions[n-1].SessionID, true
	}
	for _, s := range sessions {
		if s.SessionID == arg || strings.HasPrefix(s.SessionID, arg) {
			return s.SessionID, true
		}
	}
	return "", false
}
