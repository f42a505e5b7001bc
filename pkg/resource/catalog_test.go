package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	conformerrors "github.com/conformkit/conform/pkg/errors"
)

func TestLookupMessageFallsBackToBuiltins(t *testing.T) {
	t.Parallel()

	msg := lookupMessage(nil, MsgModifyNotImplemented, "Modify")
	require.Contains(t, msg, "Modify()")

	msg = lookupMessage(MapCatalog{}, MsgGetCurrentStateNotImplemented, "GetCurrentState")
	require.Contains(t, msg, "GetCurrentState()")

	msg = lookupMessage(nil, "NoSuchKey", "Probe")
	require.Contains(t, msg, "Probe")
}

func TestBaseUsesInstalledCatalog(t *testing.T) {
	t.Parallel()

	res := &bareResource{Name: "x"}
	res.SetMessageCatalog(MapCatalog{
		MsgGetCurrentStateNotImplemented: "la methode %s() n'est pas fournie",
	})

	_, err := res.GetCurrentState(context.Background(), nil)
	var notImpl *conformerrors.NotImplementedError
	require.ErrorAs(t, err, &notImpl)
	require.Equal(t, "la methode GetCurrentState() n'est pas fournie", err.Error())
}
