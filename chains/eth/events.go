package eth

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/evmorb/evmorb/log"
	"github.com/evmorb/evmorb/types"
)

const eventChanBuffer = 256

// ListenForEvents produces decoded contract events on the returned channel.
//
// With ToBlock set the query is historical: every matching event in the
// range is delivered and the channel is closed. With ToBlock nil the stream
// follows the chain head by polling, starting at FromBlock (or the head at
// subscribe time), until ctx is cancelled; cancelling closes the channel and
// stops the poller without leaking it. A stream can be restarted by issuing
// a new query with FromBlock set past the last seen block.
func (f *Facade) ListenForEvents(ctx context.Context, q types.EventQuery) (<-chan types.Event, error) {
	if err := f.requireConnected("ListenForEvents"); err != nil {
		return nil, err
	}

	addr, err := parseAddress(q.ContractAddress)
	if err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(q.ABI))
	if err != nil {
		return nil, types.NewValidationError("abi", err.Error())
	}

	event, ok := parsed.Events[q.EventName]
	if !ok {
		return nil, types.NewValidationError("event", "not present in the abi: "+q.EventName)
	}

	if q.ToBlock != nil {
		return f.historicalEvents(ctx, addr, parsed, event, q)
	}

	return f.streamEvents(ctx, addr, parsed, event, q)
}

func (f *Facade) historicalEvents(ctx context.Context, addr common.Address, parsed abi.ABI,
	event abi.Event, q types.EventQuery) (<-chan types.Event, error) {
	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	logs, err := f.client.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{addr},
		Topics:    [][]common.Hash{{event.ID}},
		FromBlock: q.FromBlock,
		ToBlock:   q.ToBlock,
	})
	if err != nil {
		return nil, types.NewRpcError("eth_getLogs", err)
	}

	ch := make(chan types.Event, len(logs))
	for _, lg := range logs {
		if ev, ok := decodeLog(parsed, event, lg); ok {
			ch <- ev
		}
	}
	close(ch)

	return ch, nil
}

func (f *Facade) streamEvents(ctx context.Context, addr common.Address, parsed abi.ABI,
	event abi.Event, q types.EventQuery) (<-chan types.Event, error) {
	var fromBlock uint64
	if q.FromBlock != nil {
		fromBlock = q.FromBlock.Uint64()
	} else {
		headCtx, cancel := f.opCtx(ctx)
		head, err := f.client.BlockNumber(headCtx)
		cancel()
		if err != nil {
			return nil, types.NewRpcError("eth_blockNumber", err)
		}
		fromBlock = head
	}

	ch := make(chan types.Event, eventChanBuffer)
	go f.pollEvents(ctx, addr, parsed, event, fromBlock, ch)

	return ch, nil
}

// pollEvents follows the chain head, fetching logs for every new block range
// and adapting its sleep interval to the observed block cadence.
func (f *Facade) pollEvents(ctx context.Context, addr common.Address, parsed abi.ABI,
	event abi.Event, fromBlock uint64, ch chan<- types.Event) {
	defer close(ch)

	tracker := newPollTracker(f.cfg.BlockTime)

	for {
		pollCtx, cancel := f.opCtx(ctx)
		head, err := f.client.BlockNumber(pollCtx)
		switch {
		case err != nil:
			cancel()
			if ctx.Err() != nil {
				return
			}
			log.Verbosef("Event poll for %s failed to get head, err = %v", f.cfg.Chain, err)
			tracker.miss()

		case head < fromBlock:
			cancel()
			tracker.miss()

		default:
			logs, err := f.client.FilterLogs(pollCtx, ethereum.FilterQuery{
				Addresses: []common.Address{addr},
				Topics:    [][]common.Hash{{event.ID}},
				FromBlock: new(big.Int).SetUint64(fromBlock),
				ToBlock:   new(big.Int).SetUint64(head),
			})
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Verbosef("Event poll for %s failed to get logs, err = %v", f.cfg.Chain, err)
				tracker.miss()
				break
			}

			for _, lg := range logs {
				ev, ok := decodeLog(parsed, event, lg)
				if !ok {
					continue
				}

				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			}

			fromBlock = head + 1
			tracker.hit()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(tracker.sleepTimeMs()) * time.Millisecond):
		}
	}
}

// GetPastLogs returns the decoded historical events matching the query, from
// FromBlock (default genesis) to ToBlock (default latest).
func (f *Facade) GetPastLogs(ctx context.Context, q types.EventQuery) ([]types.Event, error) {
	if err := f.requireConnected("GetPastLogs"); err != nil {
		return nil, err
	}

	addr, err := parseAddress(q.ContractAddress)
	if err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(q.ABI))
	if err != nil {
		return nil, types.NewValidationError("abi", err.Error())
	}

	event, ok := parsed.Events[q.EventName]
	if !ok {
		return nil, types.NewValidationError("event", "not present in the abi: "+q.EventName)
	}

	ctx, cancel := f.opCtx(ctx)
	defer cancel()

	logs, err := f.client.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{addr},
		Topics:    [][]common.Hash{{event.ID}},
		FromBlock: q.FromBlock,
		ToBlock:   q.ToBlock,
	})
	if err != nil {
		return nil, types.NewRpcError("eth_getLogs", err)
	}

	events := make([]types.Event, 0, len(logs))
	for _, lg := range logs {
		if ev, ok := decodeLog(parsed, event, lg); ok {
			events = append(events, ev)
		}
	}

	return events, nil
}

// decodeLog unpacks one log against the event definition. Indexed inputs
// come from the topics, the rest from the data segment.
func decodeLog(parsed abi.ABI, event abi.Event, lg ethtypes.Log) (types.Event, bool) {
	if len(lg.Topics) == 0 || lg.Topics[0] != event.ID {
		return types.Event{}, false
	}

	args := map[string]interface{}{}

	if err := parsed.UnpackIntoMap(args, event.Name, lg.Data); err != nil {
		log.Verbosef("Cannot unpack log data for event %s, err = %v", event.Name, err)
		return types.Event{}, false
	}

	indexed := make([]abi.Argument, 0)
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, lg.Topics[1:]); err != nil {
			log.Verbosef("Cannot parse log topics for event %s, err = %v", event.Name, err)
			return types.Event{}, false
		}
	}

	return types.Event{
		Name:        event.Name,
		Contract:    lg.Address.Hex(),
		TxHash:      lg.TxHash.Hex(),
		BlockNumber: lg.BlockNumber,
		LogIndex:    lg.Index,
		Args:        args,
	}, true
}
