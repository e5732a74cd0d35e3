package augment

import (
	"bytes"
	"fmt"
	"testing"
)

func TestExecuteCommandsEmptyConfigPassthrough(t *testing.T) {
	input := []byte("raw image bytes")

	out, err := ExecuteCommands(input, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Error("expected passthrough for empty command list")
	}
}

func TestExecuteCommandsAppliesChainInOrder(t *testing.T) {
	input := testImagePNG(t, 32, 16)

	configs := []CommandConfig{
		{Name: "GrayscaleCommand"},
		{Name: "ScaleCommand", Params: map[string]any{"width": 16, "height": 8}},
	}

	out, err := ExecuteCommands(input, configs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := decodeTestPNG(t, out)
	if result.Bounds().Dx() != 16 || result.Bounds().Dy() != 8 {
		t.Errorf("unexpected dimensions %v", result.Bounds())
	}
	c := result.RGBAAt(4, 4)
	if c.R != c.G || c.G != c.B {
		t.Errorf("expected grayscale output, got %v", c)
	}
}

func TestExecuteCommandsUnknownCommand(t *testing.T) {
	input := testImagePNG(t, 8, 8)

	_, err := ExecuteCommands(input, []CommandConfig{{Name: "NoSuchCommand"}})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestExecuteCommandsFailingCommandAborts(t *testing.T) {
	name := "FailingTestCommand"
	if !DefaultRegistry.IsRegistered(name) {
		err := DefaultRegistry.Register(name, func(params map[string]any) (Command, error) {
			return &failingCommand{name: name}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	input := testImagePNG(t, 8, 8)
	_, err := ExecuteCommands(input, []CommandConfig{{Name: name}})
	if err == nil {
		t.Fatal("expected error from failing command")
	}
}

type failingCommand struct {
	name string
}

func (c *failingCommand) Name() string { return c.name }

func (c *failingCommand) Execute(imageData []byte) ([]byte, error) {
	return nil, fmt.Errorf("intentional failure")
}
