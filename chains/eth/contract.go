package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/evmorb/evmorb/types"
)

// parseDescriptor validates a contract descriptor at construction time:
// bytecode must be present and the interface must be a parseable JSON ABI.
func parseDescriptor(desc types.ContractDescriptor) (abi.ABI, error) {
	if len(desc.Bytecode) == 0 {
		return abi.ABI{}, types.NewValidationError("bytecode", "must not be empty")
	}

	parsed, err := abi.JSON(strings.NewReader(desc.ABI))
	if err != nil {
		return abi.ABI{}, types.NewValidationError("abi", err.Error())
	}

	return parsed, nil
}

// buildDeployPayload produces the on-chain deployment payload: the contract
// bytecode followed by the packed constructor arguments.
func buildDeployPayload(parsed abi.ABI, bytecode []byte, args []interface{}) ([]byte, error) {
	packed, err := parsed.Pack("", args...)
	if err != nil {
		return nil, types.NewValidationError("constructor args", err.Error())
	}

	payload := make([]byte, 0, len(bytecode)+len(packed))
	payload = append(payload, bytecode...)
	payload = append(payload, packed...)

	return payload, nil
}
