package server

import (
	"context"
	"errors"
	"fmt"
	"fob_apiserver/internal/config"
	controller "fob_apiserver/internal/controller/http"
	"fob_apiserver/internal/manager"
	managerImpl "fob_apiserver/internal/manager/fob"
	"fob_apiserver/internal/recorder"
	"fob_apiserver/pkg/version"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const daemonInterval = time.Second
const recordPollInterval = 50 * time.Millisecond

type mainApp struct {
	name       string
	cmd        *cobra.Command
	args       []string
	opt        *config.FOBOpt
	newManager func(*config.FOBOpt) manager.Manager
}

func (a *mainApp) ProbeSensor() error {
	m := a.newManager(a.opt)
	log.Infoln("Probing serial ports...")
	res, err := m.ProbeDev()
	if err != nil {
		log.Errorln(err)
		return err
	}
	log.Infof("Found %d usable serial ports: \n", len(res))
	for _, v := range res {
		name := strings.TrimSpace(v)
		if n, ok := managerImpl.ComNumber(strings.TrimSuffix(name, " (streaming)")); ok {
			fmt.Printf("- %s (--com %d)\n", name, n)
		} else {
			fmt.Printf("- %s\n", name)
		}
	}
	return nil
}

func (a *mainApp) GetOpt() *config.FOBOpt {
	return a.opt
}

func (a *mainApp) SetOpt(opt *config.FOBOpt) { a.opt = opt }

// Record streams frames from the tracker into the recorder database until
// duration elapses or ctx is done. A zero duration records until ctx is done.
func (a *mainApp) Record(ctx context.Context, duration time.Duration) (int64, error) {
	rec, err := recorder.Open(a.opt.Recorder.Path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rec.Close() }()

	m := a.newManager(a.opt)
	if err := m.Start(); err != nil {
		return 0, err
	}
	defer func() {
		if err := m.Stop(); err != nil {
			log.Warnln(err)
		}
	}()
	runID := m.Status().RunID
	log.Infof("recording run %s into %s", runID, a.opt.Recorder.Path)

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	var written int64
	cursor := int64(-1)
	ticker := time.NewTicker(recordPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Infof("recorded %d frames", written)
			return written, nil
		case <-ticker.C:
		}

		if m.Faulted() {
			return written, errors.New("tracker faulted while recording")
		}
		next, frames, err := m.Read(cursor)
		switch {
		case errors.Is(err, manager.ErrNotReady), errors.Is(err, manager.ErrNoNewData):
			continue
		case err != nil:
			return written, err
		}
		if err := rec.WriteBatch(runID, frames); err != nil {
			return written, err
		}
		written += int64(len(frames))
		cursor = next
	}
}

func (a *mainApp) Run() {
	log.Infoln("version:", version.GitVersion)
	log.Infoln("api.port:", a.opt.API.Port)
	log.Infoln("api.interface:", a.opt.API.Interface)
	log.Infoln("debug:", a.opt.Debug)
	log.Infof("tracker: %+v", a.opt.Tracker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// start manager
	m := a.newManager(a.opt)
	daemonDone := make(chan struct{})
	go func() {
		managerImpl.Daemon(ctx, m, daemonInterval)
		close(daemonDone)
	}()

	// install and start api server
	if !a.opt.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	addr := net.JoinHostPort(a.opt.API.Interface, strconv.Itoa(a.opt.API.Port))
	srv := &http.Server{Addr: addr, Handler: controller.NewRouter(m)}
	go func() {
		log.Info("start HTTP listen on ", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorln("failed to serve...", err)
			stop()
		}
	}()

	// wait for exit
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnln(err)
	}
	<-daemonDone
	if err := m.Stop(); err != nil {
		log.Warnln(err)
	}
	log.Infoln("bye")
}

func (a *mainApp) PrepareRun() MainApp {
	desc := config.NewFOBDesc()
	err := desc.Parse(a.cmd)
	if err != nil {
		log.Errorln(err)
		os.Exit(1)
		return nil
	}
	desc.PostParse()
	a.opt = &desc.Opt
	a.name = config.DefaultAppName

	return a
}

type MainApp interface {
	Run()
	PrepareRun() MainApp
	GetOpt() *config.FOBOpt
	SetOpt(*config.FOBOpt)
	ProbeSensor() error
	Record(context.Context, time.Duration) (int64, error)
}

func NewMainApp(cmd *cobra.Command, args []string) MainApp {
	return &mainApp{
		cmd:        cmd,
		args:       args,
		newManager: managerImpl.NewManager,
	}
}
