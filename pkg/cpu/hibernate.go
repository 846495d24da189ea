package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
)

// snapshotState is the JSON part of a snapshot: everything except memory
// and the stack contents.
type snapshotState struct {
	ACC    uint16 `json:"acc"`
	ADR    uint16 `json:"adr"`
	PC     uint16 `json:"pc"`
	SP     uint8  `json:"sp"`
	Carry  bool   `json:"carry"`
	Zero   bool   `json:"zero"`
	Halted bool   `json:"halted"`

	// Opcode tables of the registry, so a snapshot is not resumed under an
	// incompatible instruction set. Sources include the operand source.
	Sources      map[string]uint8 `json:"sources"`
	Destinations map[string]uint8 `json:"destinations"`
}

// HibernateToBytes serialises the machine state into an in-memory ZIP archive
// holding cpu_state.json, memory.bin and stack.bin.
func (c *CPU) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := snapshotState{
		ACC:          c.ACC,
		ADR:          c.ADR,
		PC:           c.PC,
		SP:           c.SP,
		Carry:        c.Carry,
		Zero:         c.Zero,
		Halted:       c.Halted,
		Sources:      sourceTable(c.registry),
		Destinations: destinationTable(c.registry),
	}

	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal cpu_state: %w", err)
	}
	if err := writeZipEntry(zw, "cpu_state.json", jsonData); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "memory.bin", uint16SliceToLE(c.Memory[:])); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "stack.bin", uint16SliceToLE(c.Stack[:])); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes applies a snapshot produced by HibernateToBytes. The CPU
// keeps its own registry and hooks.
func (c *CPU) RestoreFromBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "cpu_state.json")
	if err != nil {
		return err
	}
	var state snapshotState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal cpu_state: %w", err)
	}
	if err := c.checkOpcodes(state.Sources, state.Destinations); err != nil {
		return err
	}

	mem, err := readZipEntry(fileMap, "memory.bin")
	if err != nil {
		return err
	}
	stack, err := readZipEntry(fileMap, "stack.bin")
	if err != nil {
		return err
	}
	if len(mem) != MemorySize*2 {
		return fmt.Errorf("memory.bin: got %d bytes, want %d", len(mem), MemorySize*2)
	}
	if len(stack) != StackSize*2 {
		return fmt.Errorf("stack.bin: got %d bytes, want %d", len(stack), StackSize*2)
	}

	c.ACC = state.ACC
	c.ADR = state.ADR
	c.PC = state.PC
	c.SP = state.SP
	c.Carry = state.Carry
	c.Zero = state.Zero
	c.Halted = state.Halted
	c.zeroSet = false
	leToUint16Slice(mem, c.Memory[:])
	leToUint16Slice(stack, c.Stack[:])
	return nil
}

// checkOpcodes rejects a snapshot taken under a different instruction set:
// the same names mapped to other opcodes decode memory differently.
// Snapshots without tables are accepted as is.
func (c *CPU) checkOpcodes(sources, destinations map[string]uint8) error {
	if sources == nil && destinations == nil {
		return nil
	}
	if !maps.Equal(sources, sourceTable(c.registry)) || !maps.Equal(destinations, destinationTable(c.registry)) {
		return fmt.Errorf("snapshot was taken with a different instruction set")
	}
	return nil
}

func sourceTable(r *Registry) map[string]uint8 {
	t := map[string]uint8{r.OperandName(): r.OperandOpcode()}
	for _, name := range r.Sources() {
		t[name], _ = r.SourceOpcode(name)
	}
	return t
}

func destinationTable(r *Registry) map[string]uint8 {
	t := make(map[string]uint8)
	for _, name := range r.Destinations() {
		t[name], _ = r.DestinationOpcode(name)
	}
	return t
}

// HibernateToFile writes the snapshot archive to path.
func (c *CPU) HibernateToFile(path string) error {
	data, err := c.HibernateToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreFromFile reads a snapshot archive from path.
func (c *CPU) RestoreFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.RestoreFromBytes(data)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func uint16SliceToLE(src []uint16) []byte {
	out := make([]byte, len(src)*2)
	for i, v := range src {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func leToUint16Slice(src []byte, dst []uint16) {
	for i := range dst {
		if i*2+1 < len(src) {
			dst[i] = binary.LittleEndian.Uint16(src[i*2:])
		}
	}
}
