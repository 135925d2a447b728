package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/stdlib"
)

// runListener keeps a LISTEN connection open, reconnecting with exponential
// backoff. After every (re)connect all subscriptions refetch, since
// notifications sent while disconnected are lost.
func (s *Store) runListener() {
	defer s.wg.Done()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		err := s.listen(s.ctx, func() {
			b.Reset()
			s.wakeAll()
		}, s.wakeCollection)
		if s.ctx.Err() != nil {
			return
		}

		wait := b.NextBackOff()
		s.logger.Warn("change listener disconnected", slog.Any("error", err), slog.Duration("retry_in", wait))
		s.failAll(fmt.Errorf("change listener disconnected: %w", err))

		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Store) listenPostgres(ctx context.Context, ready func(), notify func(collection string)) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return errors.New("listener needs the pgx stdlib driver")
		}
		pgConn := sc.Conn()

		if _, err := pgConn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
			return fmt.Errorf("failed to listen on %s: %w", NotifyChannel, err)
		}
		ready()

		for {
			n, err := pgConn.WaitForNotification(ctx)
			if err != nil {
				return err
			}
			notify(n.Payload)
		}
	})
}
