package eth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChainlistPage(t *testing.T) {
	page := `<html><head><title>Chain 1</title></head><body>
<div>RPC Server Address</div>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"chain":{"name":"Ethereum Mainnet","chainId":1,"rpc":[{"url":"https://eth.llamarpc.com"},{"url":"https://rpc.ankr.com/eth"}]}}}}</script>
</body></html>`

	rpcs, err := parseChainlistPage(page)
	require.Nil(t, err)
	require.Equal(t, []string{"https://eth.llamarpc.com", "https://rpc.ankr.com/eth"}, rpcs)
}

func TestParseChainlistPage_NoPayload(t *testing.T) {
	_, err := parseChainlistPage(`<html><body><div>nothing embedded here</div></body></html>`)
	require.NotNil(t, err)
}

func TestNoHealthyClientErr(t *testing.T) {
	err := NewNoHealthyClientErr("ganache1")
	require.Contains(t, err.Error(), "ganache1")
}
