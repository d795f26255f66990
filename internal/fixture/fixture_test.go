package fixture

import (
	"errors"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagelights/internal/colortemp"
)

func TestNew_Defaults(t *testing.T) {
	f := New("front", 1, NewChannel(1, Brightness))

	assert.Equal(t, "front", f.Name)
	assert.Equal(t, 1.0, f.Brightness())
	assert.Equal(t, 1.0, f.Alpha())
	assert.Equal(t, Range{Warm: DefaultWarmKelvin, Cold: DefaultColdKelvin}, f.Range)
	assert.NoError(t, f.Validate())
}

func TestSetBrightness_KeepsHue(t *testing.T) {
	f := New("par", 1)
	f.SetColor(colorful.Color{R: 1, G: 0.5, B: 0}, 1)

	f.SetBrightness(0.5)

	assert.InDelta(t, 0.5, f.Brightness(), 1e-9)
	assert.InDelta(t, 0.5, f.Color().R, 1e-9)
	assert.InDelta(t, 0.25, f.Color().G, 1e-9)
	assert.InDelta(t, 0.0, f.Color().B, 1e-9)
}

func TestSetTemperature_KeepsBrightness(t *testing.T) {
	f := New("par", 1)
	f.SetBrightness(0.4)

	f.SetTemperature(3000)

	assert.Equal(t, 3000, f.Temperature())
	assert.InDelta(t, 0.4, f.Brightness(), 1e-9)
	want := colortemp.ToColor(3000)
	assert.InDelta(t, want.G*0.4, f.Color().G, 1e-9)
}

func TestSetTemperature_Clamps(t *testing.T) {
	f := New("par", 1)

	f.SetTemperature(-20)
	assert.Equal(t, colortemp.Min, f.Temperature())

	f.SetTemperature(40000)
	assert.Equal(t, colortemp.Max, f.Temperature())
}

func TestValidate(t *testing.T) {
	wide := NewChannel(512, Brightness)
	wide.Wide = true

	tests := []struct {
		name    string
		fixture *Fixture
		wantErr bool
	}{
		{"last slot 8-bit", New("a", 512, NewChannel(1, Brightness)), false},
		{"16-bit on slot 512", New("b", 1, wide), true},
		{"offset pushes past end", New("c", 500, NewChannel(14, Red)), true},
		{"start zero", New("d", 0, NewChannel(1, Red)), true},
		{"channel address zero", New("e", 1, NewChannel(0, Red)), true},
		{"bad bounds", New("f", 1, Channel{Address: 1, Kind: Red, Min: 200, Max: 100}), true},
		{"unknown kind", New("g", 1, Channel{Address: 1, Kind: Kind(42), Max: 255}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fixture.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidChannel), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRender_RGBFixture(t *testing.T) {
	f := New("rgb", 10,
		NewChannel(1, Red),
		NewChannel(2, Green),
		NewChannel(3, Blue),
	)
	f.SetColor(colorful.Color{R: 1, G: 0.5, B: 0}, 1)

	writes := f.Render()

	require.Len(t, writes, 3)
	assert.Equal(t, 10, writes[0].Address)
	assert.Equal(t, byte(255), writes[0].Value)
	assert.Equal(t, 11, writes[1].Address)
	assert.Equal(t, byte(128), writes[1].Value)
	assert.Equal(t, 12, writes[2].Address)
	assert.Equal(t, byte(0), writes[2].Value)
}

func TestRender_WideChannel(t *testing.T) {
	ch := NewChannel(1, Brightness)
	ch.Wide = true
	f := New("dimmer", 100, ch)
	f.SetBrightness(0.5)

	writes := f.Render()

	require.Len(t, writes, 2)
	// round(0.5 * 65025) = 32513 = 127*255 + 128
	assert.Equal(t, Write{Address: 100, Value: 127, Channel: ch}, writes[0])
	assert.Equal(t, Write{Address: 101, Value: 128, Channel: ch}, writes[1])
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"red", Red},
		{"Cold-White", ColdWhite},
		{"ww", WarmWhite},
		{"CT", ColorTemperature},
		{"dimmer", Brightness},
		{" saturation ", Saturation},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseKind("strobe")
	assert.Error(t, err)
}

func TestKindText(t *testing.T) {
	for k := Red; k <= Saturation; k++ {
		text, err := k.MarshalText()
		require.NoError(t, err)

		var back Kind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}
}
