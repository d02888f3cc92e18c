// Command alephctl is a minimal shell-side client: it attaches to a
// channel, polls its published state, and can submit one command. It
// stands in for a real GUI client, just enough to smoke-test the shell
// handle.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/alephchan/alephd/internal/backoff"
	"github.com/alephchan/alephd/internal/shm"
	"github.com/alephchan/alephd/shell"
)

func main() {
	var (
		name         = pflag.StringP("name", "n", "alephd", "channel name to attach to")
		cmd          = pflag.StringP("cmd", "", "", "send this command once after connecting, then exit")
		hz           = pflag.Float64P("hz", "z", 20, "read polling rate in Hz")
		verifyLayout = pflag.Bool("verify-layout", false, "read only the channel header and report its geometry, then exit")
	)
	pflag.Parse()

	if *verifyLayout {
		if err := runVerifyLayout(*name); err != nil {
			log.Fatalf("alephctl: %v", err)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var s *shell.Shell
	err := backoff.Retry(ctx, "alephctl", time.Second, func(ctx context.Context) error {
		var err error
		s, err = shell.Connect(*name)
		return err
	})
	if err != nil {
		log.Fatalf("alephctl: %v", err)
	}
	defer s.Close()
	log.Printf("alephctl: connected to %q as client %d", *name, s.ClientID())

	if *cmd != "" {
		if !s.TrySendCommand([]byte(*cmd)) {
			log.Fatalf("alephctl: command %q was rejected (full or oversize)", *cmd)
		}
		log.Printf("alephctl: sent command %q", *cmd)
		return
	}

	if *hz <= 0 {
		*hz = 20
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / *hz))
	defer ticker.Stop()

	buf := make([]byte, s.DataSize())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := s.ReadData(buf)
			if n > 0 {
				log.Printf("data: %q", buf[:n])
			}
		}
	}
}

// runVerifyLayout maps an existing channel, validates its channel header,
// and reports magic/version/size-field mismatches. It maps the whole object
// but reads only the header fields; it claims no client id and touches
// neither the seqlock region nor the command ring. A minimal stand-in for a
// dedicated ABI-validation tool.
func runVerifyLayout(name string) error {
	m, err := shm.Attach(name, shm.ChannelHeaderSize)
	if err != nil {
		return err
	}
	defer m.Detach()

	l, err := shm.ReadLayout(m.Data)
	if err != nil {
		return err
	}

	fmt.Printf("channel %q: data_size=%d cmd_slots=%d seqlock_offset=%d cmd_ring_offset=%d total_size=%d\n",
		name, l.DataSize, l.CmdSlots, l.SeqlockOffset, l.CmdRingOffset, l.TotalSize)
	return nil
}
