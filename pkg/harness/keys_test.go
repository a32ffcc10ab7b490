package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingKeyboard struct {
	events    []KeyEvent
	failPress Key
	failUp    Key
}

func (k *recordingKeyboard) Press(key Key) error {
	if key == k.failPress {
		return errors.New("press failed")
	}
	k.events = append(k.events, KeyEvent{Key: key, Action: KeyDown})
	return nil
}

func (k *recordingKeyboard) Release(key Key) error {
	if key == k.failUp {
		return errors.New("release failed")
	}
	k.events = append(k.events, KeyEvent{Key: key, Action: KeyUp})
	return nil
}

func TestChord_EventsPressInOrderReleaseInReverse(t *testing.T) {
	c := MustChord(KeyControl, KeyShift, Key("2"))

	assert.Equal(t, []KeyEvent{
		{KeyControl, KeyDown},
		{KeyShift, KeyDown},
		{Key("2"), KeyDown},
		{Key("2"), KeyUp},
		{KeyShift, KeyUp},
		{KeyControl, KeyUp},
	}, c.Events())
}

func TestDispatch_MatchesEvents(t *testing.T) {
	for _, c := range []Chord{
		MustChord(KeyControl, KeyDelete),
		MustChord(KeyControl, KeyEnter),
		MustChord(KeyControl, Key("1")),
		MustChord(KeyEnter),
	} {
		t.Run(c.String(), func(t *testing.T) {
			kb := &recordingKeyboard{}
			require.NoError(t, Dispatch(kb, c))
			assert.Equal(t, c.Events(), kb.events)
		})
	}
}

func TestDispatch_FailedPressReleasesHeldKeys(t *testing.T) {
	kb := &recordingKeyboard{failPress: KeyDelete}

	err := Dispatch(kb, MustChord(KeyControl, KeyShift, KeyDelete))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to press Delete")

	assert.Equal(t, []KeyEvent{
		{KeyControl, KeyDown},
		{KeyShift, KeyDown},
		{KeyShift, KeyUp},
		{KeyControl, KeyUp},
	}, kb.events)
}

func TestDispatch_ReleaseErrorStillReleasesRest(t *testing.T) {
	kb := &recordingKeyboard{failUp: KeyEnter}

	err := Dispatch(kb, MustChord(KeyControl, KeyEnter))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to release Enter")
	assert.Equal(t, KeyEvent{KeyControl, KeyUp}, kb.events[len(kb.events)-1])
}

func TestDispatch_EmptyChord(t *testing.T) {
	assert.Error(t, Dispatch(&recordingKeyboard{}, Chord{}))
}

func TestNewChord_Validation(t *testing.T) {
	_, err := NewChord()
	assert.Error(t, err)

	_, err = NewChord(KeyControl, KeyControl)
	assert.ErrorContains(t, err, "repeated")

	_, err = NewChord(KeyControl, Key("F13"))
	assert.ErrorContains(t, err, "unknown key")
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Control+Enter", "Control+Enter"},
		{"ctrl+delete", "Control+Delete"},
		{"Ctrl + 2", "Control+2"},
		{"cmd+shift+a", "Meta+Shift+a"},
		{"esc", "Escape"},
	}
	for _, tt := range tests {
		c, err := ParseChord(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, c.String())
	}

	for _, bad := range []string{"", "ctrl+", "ctrl++1", "ctrl+F5"} {
		_, err := ParseChord(bad)
		assert.Error(t, err, bad)
	}
}

func TestChord_KeysIsACopy(t *testing.T) {
	c := MustChord(KeyControl, Key("1"))
	keys := c.Keys()
	keys[0] = KeyAlt
	assert.Equal(t, "Control+1", c.String())
}

func TestRodKeyMappingCoversValidKeys(t *testing.T) {
	for k := range keyAliases {
		_, err := rodKey(keyAliases[k])
		assert.NoError(t, err, k)
	}
	for c := '0'; c <= '9'; c++ {
		_, err := rodKey(Key(string(c)))
		assert.NoError(t, err, string(c))
	}
	for c := 'a'; c <= 'z'; c++ {
		_, err := rodKey(Key(string(c)))
		assert.NoError(t, err, string(c))
	}
}
