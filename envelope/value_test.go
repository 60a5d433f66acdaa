package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTree = `{"user":{"profile":{"name":"John","age":30}},"items":["a","b","c"]}`

func TestValue_Get(t *testing.T) {
	root, err := Unmarshal([]byte(sampleTree))
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    string
		wantNum int64
		isNum   bool
		absent  bool
	}{
		{name: "nested object", path: "user/profile/name", want: "John"},
		{name: "nested number", path: "user/profile/age", wantNum: 30, isNum: true},
		{name: "array index", path: "items/1", want: "b"},
		{name: "index out of range", path: "items/10", absent: true},
		{name: "negative index", path: "items/-1", absent: true},
		{name: "missing key", path: "user/nonexistent", absent: true},
		{name: "key on scalar", path: "user/profile/name/deeper", absent: true},
		{name: "non-numeric array segment", path: "items/first", absent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := root.Get(tt.path)
			if tt.absent {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			if tt.isNum {
				n, ok := v.Int64()
				require.True(t, ok)
				assert.Equal(t, tt.wantNum, n)
				return
			}
			s, ok := v.String()
			require.True(t, ok)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestValue_Kinds(t *testing.T) {
	root, err := Unmarshal([]byte(`{"b":true,"n":12.5,"s":"x","a":[1],"o":{},"z":null}`))
	require.NoError(t, err)

	b, ok := root.obj["b"].Bool()
	assert.True(t, ok)
	assert.True(t, b)

	f, ok := root.obj["n"].Float64()
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)

	_, ok = root.obj["n"].Int64()
	assert.False(t, ok, "fractional number should not read as int")

	assert.True(t, root.obj["z"].IsNull())
	assert.Equal(t, 1, root.obj["a"].Len())
	assert.Equal(t, KindObject, root.obj["o"].Kind())
}

func TestValue_UnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte("not json"))
	assert.Error(t, err)
}

func TestValue_LargeIntegerSurvives(t *testing.T) {
	root, err := Unmarshal([]byte(`{"id":9007199254740993}`))
	require.NoError(t, err)
	n, ok := root.GetInt64("id")
	require.True(t, ok)
	assert.Equal(t, int64(9007199254740993), n)
}

func TestValue_Decode(t *testing.T) {
	root, err := Unmarshal([]byte(`{"PUT":"https://up.example.com","Complete":"https://done.example.com","Blocksize":1024}`))
	require.NoError(t, err)

	var out struct {
		PUT       string `json:"PUT"`
		Complete  string `json:"Complete"`
		Blocksize int64  `json:"Blocksize"`
	}
	require.NoError(t, root.Decode(&out))
	assert.Equal(t, "https://up.example.com", out.PUT)
	assert.Equal(t, "https://done.example.com", out.Complete)
	assert.Equal(t, int64(1024), out.Blocksize)
}
