package starknet

// Call is one contract invocation as handed to a wallet for signing.
type Call struct {
	ContractAddress string   `json:"contract_address"`
	EntryPoint      string   `json:"entry_point"`
	Calldata        []string `json:"calldata"`
}

// FunctionCall is the starknet_call request body.
type FunctionCall struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

// NewCall builds a Call with a non-nil calldata slice.
func NewCall(contract, entrypoint string, calldata ...string) Call {
	if calldata == nil {
		calldata = []string{}
	}
	return Call{ContractAddress: contract, EntryPoint: entrypoint, Calldata: calldata}
}

// FunctionCall converts c into a read request by hashing its entrypoint.
func (c Call) FunctionCall() FunctionCall {
	data := c.Calldata
	if data == nil {
		data = []string{}
	}
	return FunctionCall{
		ContractAddress:    c.ContractAddress,
		EntryPointSelector: Selector(c.EntryPoint),
		Calldata:           data,
	}
}
