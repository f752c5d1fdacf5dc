package native

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrShortPayload is returned when a property payload is smaller than its layout
var ErrShortPayload = errors.New("native: short property payload")

// Fixed payload sizes
const (
	SizeUint32          = 4
	SizeFloat64         = 8
	SizeStreamFormat    = 40
	SizeParameterInfo   = ParameterNameSize + 24
	SizeChannelInfo     = 4
	SizeChannelLayout   = 12
	SizeIdentity        = 12
	SizeOtherPluginDesc = 16
	SizeTranslation     = SizeOtherPluginDesc + 16
)

var order = binary.LittleEndian

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) u8(v uint8) { e.buf.WriteByte(v) }

func (e *encoder) u16(v uint16) {
	var b [2]byte
	order.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) u32(v uint32) {
	var b [4]byte
	order.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) u64(v uint64) {
	var b [8]byte
	order.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }
func (e *encoder) f64(v float64) { e.u64(math.Float64bits(v)) }

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf.WriteString(s)
}

func (e *encoder) fixed(s string, n int) {
	b := make([]byte, n)
	copy(b[:n-1], s)
	e.buf.Write(b)
}

func (e *encoder) bytes() []byte { return e.buf.Bytes() }

type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.data)-d.off < n {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortPayload, n, d.off, len(d.data)-d.off)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16() uint16 {
	if b := d.take(2); b != nil {
		return order.Uint16(b)
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return order.Uint32(b)
	}
	return 0
}

func (d *decoder) u64() uint64 {
	if b := d.take(8); b != nil {
		return order.Uint64(b)
	}
	return 0
}

func (d *decoder) f32() float32 { return math.Float32frombits(d.u32()) }
func (d *decoder) f64() float64 { return math.Float64frombits(d.u64()) }

func (d *decoder) str() string {
	n := d.u32()
	return string(d.take(int(n)))
}

func (d *decoder) fixed(n int) string {
	b := d.take(n)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// count reads an element count and checks it against the remaining payload
func (d *decoder) count(elemSize int) int {
	n := int(d.u32())
	if d.err == nil && elemSize > 0 && n > (len(d.data)-d.off)/elemSize {
		d.err = fmt.Errorf("%w: %d elements of %d bytes", ErrShortPayload, n, elemSize)
		return 0
	}
	return n
}

// EncodeUint32 encodes a scalar property value
func EncodeUint32(v uint32) []byte {
	var e encoder
	e.u32(v)
	return e.bytes()
}

// DecodeUint32 decodes a scalar property value
func DecodeUint32(data []byte) (uint32, error) {
	d := decoder{data: data}
	v := d.u32()
	return v, d.err
}

// EncodeFloat64 encodes a time-valued property such as latency
func EncodeFloat64(v float64) []byte {
	var e encoder
	e.f64(v)
	return e.bytes()
}

// DecodeFloat64 decodes a time-valued property
func DecodeFloat64(data []byte) (float64, error) {
	d := decoder{data: data}
	v := d.f64()
	return v, d.err
}

// MarshalBinary encodes the stream format in its fixed 40-byte layout
func (f StreamFormat) MarshalBinary() ([]byte, error) {
	var e encoder
	e.f64(f.SampleRate)
	e.u32(uint32(f.FormatID))
	e.u32(f.FormatFlags)
	e.u32(f.BytesPerPacket)
	e.u32(f.FramesPerPacket)
	e.u32(f.BytesPerFrame)
	e.u32(f.ChannelsPerFrame)
	e.u32(f.BitsPerChannel)
	e.u32(f.Reserved)
	return e.bytes(), nil
}

func (f *StreamFormat) UnmarshalBinary(data []byte) error {
	d := decoder{data: data}
	f.SampleRate = d.f64()
	f.FormatID = OSType(d.u32())
	f.FormatFlags = d.u32()
	f.BytesPerPacket = d.u32()
	f.FramesPerPacket = d.u32()
	f.BytesPerFrame = d.u32()
	f.ChannelsPerFrame = d.u32()
	f.BitsPerChannel = d.u32()
	f.Reserved = d.u32()
	return d.err
}

// MarshalBinary encodes the descriptor with a NUL-padded fixed-width name.
// Names longer than ParameterNameSize-1 bytes are truncated.
func (p ParameterInfo) MarshalBinary() ([]byte, error) {
	var e encoder
	e.fixed(p.Name, ParameterNameSize)
	e.u32(p.ClumpID)
	e.u32(p.Unit)
	e.f32(p.MinValue)
	e.f32(p.MaxValue)
	e.f32(p.DefaultValue)
	e.u32(p.Flags)
	return e.bytes(), nil
}

func (p *ParameterInfo) UnmarshalBinary(data []byte) error {
	d := decoder{data: data}
	p.Name = d.fixed(ParameterNameSize)
	p.ClumpID = d.u32()
	p.Unit = d.u32()
	p.MinValue = d.f32()
	p.MaxValue = d.f32()
	p.DefaultValue = d.f32()
	p.Flags = d.u32()
	return d.err
}

// EncodeParameterList encodes a parameter list as packed ids with no header
func EncodeParameterList(ids []ParameterID) []byte {
	var e encoder
	for _, id := range ids {
		e.u32(uint32(id))
	}
	return e.bytes()
}

// DecodeParameterList decodes packed parameter ids. Trailing partial ids are an error.
func DecodeParameterList(data []byte) ([]ParameterID, error) {
	if len(data)%SizeUint32 != 0 {
		return nil, fmt.Errorf("%w: parameter list of %d bytes", ErrShortPayload, len(data))
	}
	ids := make([]ParameterID, 0, len(data)/SizeUint32)
	for i := 0; i < len(data); i += SizeUint32 {
		ids = append(ids, ParameterID(order.Uint32(data[i:])))
	}
	return ids, nil
}

func (p Preset) MarshalBinary() ([]byte, error) {
	var e encoder
	e.u32(uint32(p.Number))
	e.str(p.Name)
	return e.bytes(), nil
}

func (p *Preset) UnmarshalBinary(data []byte) error {
	d := decoder{data: data}
	p.Number = int32(d.u32())
	p.Name = d.str()
	return d.err
}

// EncodePresets encodes a counted preset array
func EncodePresets(presets []Preset) []byte {
	var e encoder
	e.u32(uint32(len(presets)))
	for _, p := range presets {
		e.u32(uint32(p.Number))
		e.str(p.Name)
	}
	return e.bytes()
}

// DecodePresets decodes a counted preset array
func DecodePresets(data []byte) ([]Preset, error) {
	d := decoder{data: data}
	n := d.count(8)
	presets := make([]Preset, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		presets = append(presets, Preset{Number: int32(d.u32()), Name: d.str()})
	}
	return presets, d.err
}

// EncodeStrings encodes a counted string array
func EncodeStrings(values []string) []byte {
	var e encoder
	e.u32(uint32(len(values)))
	for _, s := range values {
		e.str(s)
	}
	return e.bytes()
}

// DecodeStrings decodes a counted string array
func DecodeStrings(data []byte) ([]string, error) {
	d := decoder{data: data}
	n := d.count(4)
	values := make([]string, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		values = append(values, d.str())
	}
	return values, d.err
}

// EncodeChannelInfos encodes packed channel configurations
func EncodeChannelInfos(infos []ChannelInfo) []byte {
	var e encoder
	for _, c := range infos {
		e.u16(uint16(c.InChannels))
		e.u16(uint16(c.OutChannels))
	}
	return e.bytes()
}

// DecodeChannelInfos decodes packed channel configurations
func DecodeChannelInfos(data []byte) ([]ChannelInfo, error) {
	d := decoder{data: data}
	n := len(data) / SizeChannelInfo
	infos := make([]ChannelInfo, 0, n)
	for i := 0; i < n; i++ {
		infos = append(infos, ChannelInfo{InChannels: int16(d.u16()), OutChannels: int16(d.u16())})
	}
	return infos, d.err
}

func (l ChannelLayout) MarshalBinary() ([]byte, error) {
	var e encoder
	e.u32(uint32(l.Tag))
	e.u32(l.Bitmap)
	e.u32(l.Entries)
	return e.bytes(), nil
}

func (l *ChannelLayout) UnmarshalBinary(data []byte) error {
	d := decoder{data: data}
	l.Tag = ChannelLayoutTag(d.u32())
	l.Bitmap = d.u32()
	l.Entries = d.u32()
	return d.err
}

// EncodeLayoutTags encodes packed layout tags
func EncodeLayoutTags(tags []ChannelLayoutTag) []byte {
	var e encoder
	for _, t := range tags {
		e.u32(uint32(t))
	}
	return e.bytes()
}

// DecodeLayoutTags decodes packed layout tags, ignoring a trailing partial tag
func DecodeLayoutTags(data []byte) []ChannelLayoutTag {
	tags := make([]ChannelLayoutTag, 0, len(data)/SizeUint32)
	for i := 0; i+SizeUint32 <= len(data); i += SizeUint32 {
		tags = append(tags, ChannelLayoutTag(order.Uint32(data[i:])))
	}
	return tags
}

// EncodeIdentities encodes packed identities, as used by view component lists
func EncodeIdentities(ids []Identity) []byte {
	var e encoder
	for _, id := range ids {
		e.u32(uint32(id.Type))
		e.u32(uint32(id.Subtype))
		e.u32(uint32(id.Manufacturer))
	}
	return e.bytes()
}

// DecodeIdentities decodes packed identities, ignoring a trailing partial entry
func DecodeIdentities(data []byte) []Identity {
	d := decoder{data: data}
	n := len(data) / SizeIdentity
	ids := make([]Identity, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, Identity{Type: OSType(d.u32()), Subtype: OSType(d.u32()), Manufacturer: OSType(d.u32())})
	}
	return ids
}

func (c CocoaViewInfo) MarshalBinary() ([]byte, error) {
	var e encoder
	e.str(c.BundleLocation)
	e.u32(uint32(len(c.Classes)))
	for _, cls := range c.Classes {
		e.str(cls)
	}
	return e.bytes(), nil
}

func (c *CocoaViewInfo) UnmarshalBinary(data []byte) error {
	d := decoder{data: data}
	c.BundleLocation = d.str()
	n := d.count(4)
	c.Classes = make([]string, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		c.Classes = append(c.Classes, d.str())
	}
	return d.err
}

func (o OtherPluginDesc) encode(e *encoder) {
	e.u32(o.Format)
	e.u32(uint32(o.Type))
	e.u32(uint32(o.Subtype))
	e.u32(uint32(o.Manufacturer))
}

func decodeOtherPluginDesc(d *decoder) OtherPluginDesc {
	return OtherPluginDesc{
		Format:       d.u32(),
		Type:         OSType(d.u32()),
		Subtype:      OSType(d.u32()),
		Manufacturer: OSType(d.u32()),
	}
}

// EncodeOtherPluginDescs encodes a counted replacement list
func EncodeOtherPluginDescs(descs []OtherPluginDesc) []byte {
	var e encoder
	e.u32(uint32(len(descs)))
	for _, o := range descs {
		o.encode(&e)
	}
	return e.bytes()
}

// DecodeOtherPluginDescs decodes a counted replacement list
func DecodeOtherPluginDescs(data []byte) ([]OtherPluginDesc, error) {
	d := decoder{data: data}
	n := d.count(SizeOtherPluginDesc)
	descs := make([]OtherPluginDesc, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		descs = append(descs, decodeOtherPluginDesc(&d))
	}
	return descs, d.err
}

func (t ParameterValueTranslation) MarshalBinary() ([]byte, error) {
	var e encoder
	t.Other.encode(&e)
	e.u32(t.OtherParamID)
	e.f32(t.OtherValue)
	e.u32(t.ParamID)
	e.f32(t.Value)
	return e.bytes(), nil
}

func (t *ParameterValueTranslation) UnmarshalBinary(data []byte) error {
	d := decoder{data: data}
	t.Other = decodeOtherPluginDesc(&d)
	t.OtherParamID = d.u32()
	t.OtherValue = d.f32()
	t.ParamID = d.u32()
	t.Value = d.f32()
	return d.err
}

func (h HostIdentifier) MarshalBinary() ([]byte, error) {
	var e encoder
	e.str(h.Name)
	e.u32(h.Version)
	return e.bytes(), nil
}

func (h *HostIdentifier) UnmarshalBinary(data []byte) error {
	d := decoder{data: data}
	h.Name = d.str()
	h.Version = d.u32()
	return d.err
}

// MarshalBinary encodes the saved state as a counted list of typed entries
func (c ClassInfo) MarshalBinary() ([]byte, error) {
	var e encoder
	e.u32(uint32(len(c.Entries)))
	for _, entry := range c.Entries {
		e.str(entry.Key)
		e.u8(uint8(entry.Value.Kind))
		switch entry.Value.Kind {
		case StateString:
			e.str(entry.Value.String)
		case StateInteger:
			e.u64(uint64(entry.Value.Integer))
		case StateFloat:
			e.f64(entry.Value.Float)
		case StateData:
			e.str(string(entry.Value.Data))
		default:
			return nil, fmt.Errorf("native: unknown state value kind %d for key %q", entry.Value.Kind, entry.Key)
		}
	}
	return e.bytes(), nil
}

func (c *ClassInfo) UnmarshalBinary(data []byte) error {
	d := decoder{data: data}
	n := d.count(5)
	c.Entries = make([]StateEntry, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		entry := StateEntry{Key: d.str()}
		entry.Value.Kind = StateValueKind(d.u8())
		switch entry.Value.Kind {
		case StateString:
			entry.Value.String = d.str()
		case StateInteger:
			entry.Value.Integer = int64(d.u64())
		case StateFloat:
			entry.Value.Float = d.f64()
		case StateData:
			entry.Value.Data = []byte(d.str())
		default:
			if d.err == nil {
				return fmt.Errorf("native: unknown state value kind %d for key %q", entry.Value.Kind, entry.Key)
			}
		}
		c.Entries = append(c.Entries, entry)
	}
	return d.err
}
