package driver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/command"
	"github.com/oxplot/go-tps6699x/tfu"
)

// Firmware operating modes reported by Mode.
const (
	ModeBoot   = "BOOT"
	ModeUpdate = "F211"
	ModeApp0   = "APP0"
	ModeApp1   = "APP1"
)

func (d *Driver) expectMode(modes ...string) error {
	m, err := d.Mode(0)
	if err != nil {
		return err
	}
	if !slices.Contains(modes, m) {
		return fmt.Errorf("driver: mode %q: %w", m, tps6699x.ErrInvalidMode)
	}
	return nil
}

func updateStep(op command.Opcode, rv command.ReturnValue) error {
	if rv != command.Success {
		return fmt.Errorf("driver: %s returned %s: %w", op, rv, tps6699x.ErrUpdateFailed)
	}
	return nil
}

// EnterFirmwareUpdate switches the controller to firmware update mode. Only
// port 0 keeps processing interrupts while in update mode. On failure the
// previous interrupt settings are restored.
func (d *Driver) EnterFirmwareUpdate(ctx context.Context) error {
	restore := d.suspendInterrupts()
	err := d.controllerSend(ctx, command.Command{Opcode: command.OpTfuStart}, d.cfg.UpdateModeDelay)
	if err == nil {
		err = d.expectMode(ModeUpdate)
	}
	if err != nil {
		restore()
		return err
	}
	d.ports[0].interrupts.Store(true)
	if d.log != nil {
		d.log.Info().Str("id", d.id).Msg("firmware update mode entered")
	}
	return nil
}

// InitFirmwareUpdate starts an update with the arguments of the image header.
func (d *Driver) InitFirmwareUpdate(ctx context.Context, args tfu.Args) error {
	res, err := d.Execute(ctx, 0, command.Command{Opcode: command.OpTfuInit, Params: args.Bytes()})
	if err != nil {
		return err
	}
	return updateStep(command.OpTfuInit, res.Return)
}

// StreamFirmwareBlock announces the data block described by args, to be
// written to the broadcast address next.
func (d *Driver) StreamFirmwareBlock(ctx context.Context, args tfu.Args) error {
	res, err := d.Execute(ctx, 0, command.Command{Opcode: command.OpTfuData, Params: args.Bytes()})
	if err != nil {
		return err
	}
	return updateStep(command.OpTfuData, res.Return)
}

// ValidateFirmwareBlock returns the status the controller reports for block
// index.
func (d *Driver) ValidateFirmwareBlock(ctx context.Context, index int) (tfu.BlockStatus, error) {
	if index < 0 || index >= tfu.MaxBlocks {
		return 0, fmt.Errorf("driver: firmware block %d: %w", index, tps6699x.ErrInvalidWidth)
	}
	res, err := d.Execute(ctx, 0, command.Command{
		Opcode:      command.OpTfuQuery,
		Params:      tfu.QueryArgs(),
		ResponseLen: tfu.QueryResponseLen,
	})
	if err != nil {
		return 0, err
	}
	if err := updateStep(command.OpTfuQuery, res.Return); err != nil {
		return 0, err
	}
	q, err := tfu.ParseQuery(res.Data)
	if err != nil {
		return 0, fmt.Errorf("driver: %w: %w", tps6699x.ErrInvalidResponse, err)
	}
	st := q.Blocks[index]
	if !st.Known() {
		return st, fmt.Errorf("driver: firmware block %d: %s: %w", index, st, tps6699x.ErrInvalidResponse)
	}
	return st, nil
}

// CompleteFirmwareUpdate applies the loaded image and restarts the controller
// into application mode. Interrupt processing is enabled on every port
// afterwards and every port is considered detached.
func (d *Driver) CompleteFirmwareUpdate(ctx context.Context) error {
	d.EnableInterrupts(false)
	defer d.EnableInterrupts(true)

	cmd := command.Command{Opcode: command.OpTfuComplete, Params: tfu.CompleteArgs()}
	err := d.controllerSend(ctx, cmd, d.cfg.ResetDelay)
	if err == nil {
		err = d.expectMode(ModeApp0, ModeApp1)
	}
	if err != nil {
		return err
	}
	d.detachAll()
	if d.log != nil {
		d.log.Info().Str("id", d.id).Msg("firmware update complete")
	}
	return nil
}

// ExitFirmwareUpdate leaves firmware update mode without applying an image.
// If the controller times out or does not report success, it is reset
// instead. Interrupt processing is enabled on every port afterwards.
func (d *Driver) ExitFirmwareUpdate(ctx context.Context) error {
	res, err := d.Execute(ctx, 0, command.Command{Opcode: command.OpTfuExit})
	if err == nil && res.Return == command.Success {
		d.EnableInterrupts(true)
		return nil
	}
	if err != nil && !resettable(err) {
		return err
	}
	if d.log != nil {
		d.log.Warn().
			Str("id", d.id).
			Str("return", res.Return.String()).
			Err(err).
			Msg("firmware update exit failed, resetting controller")
	}
	if err := d.Reset(ctx); err != nil {
		return err
	}
	d.EnableInterrupts(true)
	return nil
}

func resettable(err error) bool {
	return errors.Is(err, tps6699x.ErrTimeout) ||
		errors.Is(err, tps6699x.ErrRejected) ||
		errors.Is(err, tps6699x.ErrAborted) ||
		errors.Is(err, tps6699x.ErrRxLocked)
}

// UpdateFirmware writes a complete firmware image to the controller. The
// transport must implement tps6699x.Broadcaster. If any step after entering
// update mode fails, update mode is left with ExitFirmwareUpdate and both
// errors are returned.
func (d *Driver) UpdateFirmware(ctx context.Context, image []byte) error {
	b, ok := d.t.(tps6699x.Broadcaster)
	if !ok {
		return fmt.Errorf("driver: firmware update: %w", tps6699x.ErrUnsupported)
	}
	img, err := tfu.Parse(image)
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	if d.log != nil {
		d.log.Info().
			Str("id", d.id).
			Int("blocks", len(img.Data)).
			Msg("starting firmware update")
	}

	if err := d.EnterFirmwareUpdate(ctx); err != nil {
		return err
	}
	if err := d.loadFirmware(ctx, b, img); err != nil {
		return errors.Join(err, d.ExitFirmwareUpdate(ctx))
	}
	if err := d.CompleteFirmwareUpdate(ctx); err != nil {
		return errors.Join(err, d.ExitFirmwareUpdate(ctx))
	}
	return nil
}

func (d *Driver) loadFirmware(ctx context.Context, b tps6699x.Broadcaster, img *tfu.Image) error {
	for _, blk := range img.Blocks() {
		var err error
		if blk.Index == tfu.HeaderBlockIndex {
			err = d.InitFirmwareUpdate(ctx, blk.Args)
		} else {
			err = d.StreamFirmwareBlock(ctx, blk.Args)
		}
		if err != nil {
			return err
		}
		if err := d.loadBlock(ctx, b, blk); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) loadBlock(ctx context.Context, b tps6699x.Broadcaster, blk tfu.Block) error {
	for _, chunk := range blk.Chunks() {
		if err := b.Broadcast(blk.Args.BroadcastAddress, chunk); err != nil {
			return fmt.Errorf("driver: firmware block %d: %w: %w", blk.Index, tps6699x.ErrBus, err)
		}
	}

	t := time.NewTimer(d.cfg.BlockDelay)
	select {
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	case <-t.C:
	}

	st, err := d.ValidateFirmwareBlock(ctx, blk.Index)
	if err != nil {
		return err
	}
	if !blk.Accepts(st) {
		return fmt.Errorf("driver: firmware block %d: %s: %w", blk.Index, st, tps6699x.ErrUpdateFailed)
	}
	if d.log != nil {
		d.log.Debug().
			Str("id", d.id).
			Int("block", blk.Index).
			Int("bytes", len(blk.Data)).
			Str("status", st.String()).
			Msg("firmware block loaded")
	}
	return nil
}
