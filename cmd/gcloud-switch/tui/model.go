// Package tui renders the profile switcher and feeds key presses, check
// results and finished actions into the app state machine.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/tjirsch/gcloud-switch/internal/app"
	"github.com/tjirsch/gcloud-switch/internal/deferred"
	"github.com/tjirsch/gcloud-switch/internal/profile"
	"github.com/tjirsch/gcloud-switch/internal/validate"
)

// Scheduler starts credential checks and delivers their results.
type Scheduler interface {
	Schedule(accounts ...string) []string
	Recheck(accounts ...string) []string
	Results() <-chan validate.Result
	Complete(validate.Result) bool
}

// Gcloud runs the background gcloud calls the machine asks for.
type Gcloud interface {
	CreateConfiguration(ctx context.Context, name string, p profile.Profile) error
	DeleteConfiguration(ctx context.Context, name string) error
	ListProjects(ctx context.Context, account string) ([]string, error)
}

// AccountLister lists accounts with stored gcloud credentials.
type AccountLister interface {
	Accounts(ctx context.Context) ([]string, error)
}

// effectTimeout bounds background gcloud calls.
const effectTimeout = 30 * time.Second

// Model is the root bubbletea model.
type Model struct {
	machine   *app.Machine
	sched     Scheduler
	gcloud    Gcloud
	accounts  AccountLister
	help      help.Model
	statusBar StatusBar

	width, height int
	quitting      bool
}

// NewModel wraps machine. accounts may be nil.
func NewModel(machine *app.Machine, sched Scheduler, gc Gcloud, accounts AccountLister) Model {
	return Model{
		machine:   machine,
		sched:     sched,
		gcloud:    gc,
		accounts:  accounts,
		help:      help.New(),
		statusBar: NewStatusBar(),
	}
}

// Machine returns the wrapped state machine.
func (m Model) Machine() *app.Machine { return m.machine }

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForResult(m.sched)}
	if m.accounts != nil {
		cmds = append(cmds, listAccounts(m.accounts))
	}
	cmds = append(cmds, m.runEffects()...)
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.statusBar.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if _, normal := m.machine.Mode().(app.Normal); normal && msg.String() == "?" && !m.machine.Awaiting() {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		m.machine.HandleKey(msg.String())

	case AuthResultMsg:
		if m.sched.Complete(msg.Result) {
			m.machine.ApplyAuth(msg.Result.Account, msg.Result.Status)
		}
		cmds = append(cmds, waitForResult(m.sched))

	case ActionDoneMsg:
		m.machine.ApplyOutcome(msg.Outcome)

	case ProjectsMsg:
		if msg.Err != nil {
			log.Debug("listing projects failed", "account", msg.Account, "err", msg.Err)
			m.machine.SetProjects(msg.Account, nil)
			return m, nil
		}
		m.machine.SetProjects(msg.Account, msg.Projects)
		return m, nil

	case KnownAccountsMsg:
		m.machine.SetKnownAccounts(msg.Accounts)
		return m, nil

	case EffectErrMsg:
		m.machine.ReportError(msg.What, msg.Err)
		return m, nil
	}

	cmds = append(cmds, m.runEffects()...)
	if m.quitting {
		cmds = append(cmds, tea.Quit)
	}
	return m, tea.Batch(cmds...)
}

// runEffects drains the machine's outbox. Checks start right away; gcloud
// calls become commands.
func (m *Model) runEffects() []tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range m.machine.Effects() {
		switch e := e.(type) {
		case app.ScheduleChecks:
			m.sched.Schedule(e.Accounts...)
		case app.RecheckAccounts:
			m.sched.Recheck(e.Accounts...)
		case app.CreateConfiguration:
			cmds = append(cmds, m.createConfiguration(e))
		case app.RemoveConfiguration:
			cmds = append(cmds, m.removeConfiguration(e))
		case app.ListProjects:
			cmds = append(cmds, m.listProjects(e.Account))
		case app.Quit:
			m.quitting = true
		}
	}
	return cmds
}

func (m Model) createConfiguration(e app.CreateConfiguration) tea.Cmd {
	gc := m.gcloud
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		defer cancel()
		if err := gc.CreateConfiguration(ctx, e.Name, e.Profile); err != nil {
			return EffectErrMsg{What: "creating gcloud configuration " + e.Name, Err: err}
		}
		return nil
	}
}

func (m Model) removeConfiguration(e app.RemoveConfiguration) tea.Cmd {
	gc := m.gcloud
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		defer cancel()
		if err := gc.DeleteConfiguration(ctx, e.Name); err != nil {
			log.Warn("removing gcloud configuration failed", "name", e.Name, "err", err)
		}
		return nil
	}
}

func (m Model) listProjects(account string) tea.Cmd {
	gc := m.gcloud
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		defer cancel()
		projects, err := gc.ListProjects(ctx, account)
		return ProjectsMsg{Account: account, Projects: projects, Err: err}
	}
}

func waitForResult(s Scheduler) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-s.Results()
		if !ok {
			return nil
		}
		return AuthResultMsg{Result: r}
	}
}

func listAccounts(l AccountLister) tea.Cmd {
	return func() tea.Msg {
		accounts, err := l.Accounts(context.Background())
		if err != nil {
			log.Debug("listing gcloud accounts failed", "err", err)
			return nil
		}
		return KnownAccountsMsg{Accounts: accounts}
	}
}

// Run shows the UI until the user quits. Deferred actions are drained by a
// driver goroutine that hands the terminal to gcloud while they run.
func Run(ctx context.Context, m Model, q *deferred.Queue, runner deferred.Runner) error {
	ctx, cancel := uiContext(ctx)
	defer cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	go drive(ctx, q, p, p, runner)

	_, err := p.Run()
	if errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

// uiContext detaches the program from ctx's cancellation. An interrupt while
// gcloud owns the terminal stops gcloud, and the UI then reports the failed
// action instead of exiting; the UI itself quits through its own keys.
func uiContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(context.WithoutCancel(ctx))
}

// sender delivers messages to the running program.
type sender interface {
	Send(tea.Msg)
}

func drive(ctx context.Context, q *deferred.Queue, term deferred.Terminal, s sender, runner deferred.Runner) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.Ready():
			if out, ok := q.Drain(ctx, term, runner); ok {
				s.Send(ActionDoneMsg{Outcome: out})
			}
		}
	}
}
