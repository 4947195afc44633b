package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"testing"
)

/*
Fuzzで検証する性質（簡易）
1. パニックしない（スレッドセーフ）
2. Loadが返す期限は参照モデル上で最後にStoreされた期限と一致する
3. CompareAndDeleteは参照モデルの期限と一致したときだけ成功する
4. Len()は参照モデルの生存キー数と一致する
*/

func FuzzMapOperations(f *testing.F) {
	seedCorpus := [][]byte{
		{0x00, 3, 3, 0}, // store
		{0x01, 3, 3, 5}, // load
		{0x02, 3, 0, 0}, // delete
		{0x03, 3, 0, 0}, // compare and delete
	}
	for _, c := range seedCorpus {
		f.Add(c)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) < 4 {
			t.Skip()
		}

		st := New[string](WithShards(16))
		model := map[string]int64{}

		const (
			opStore = 0
			opLoad  = 1
			opDel   = 2
			opCAD   = 3
		)

		reader := bytes.NewReader(data)
		chunk := make([]byte, 4)
		opCount := 0

		for {
			if _, err := reader.Read(chunk); err != nil {
				break
			}
			op := chunk[0] % 4
			key := fmt.Sprintf("k%02d", chunk[1]%20)
			deadline := int64(chunk[2] % 8)

			switch op {
			case opStore:
				st.Store(key, deadline)
				model[key] = deadline
			case opLoad:
				got, ok := st.Load(key)
				want, wok := model[key]
				if ok != wok || got != want {
					t.Fatalf("load %s: got (%d,%v) want (%d,%v)", key, got, ok, want, wok)
				}
			case opDel:
				st.Delete(key)
				delete(model, key)
			case opCAD:
				want, wok := model[key]
				ok := st.CompareAndDelete(key, deadline)
				if ok != (wok && want == deadline) {
					t.Fatalf("compare-and-delete %s@%d: got %v", key, deadline, ok)
				}
				if ok {
					delete(model, key)
				}
			}
			opCount++
			if opCount > 20_000 { // 上限（無限ループ防止）
				break
			}
		}

		if st.Len() != len(model) {
			t.Fatalf("len mismatch: got %d want %d", st.Len(), len(model))
		}
	})
}

// 簡易並行版: fuzz 入力でキー集合を派生し複数 goroutine が操作
func FuzzMapConcurrent(f *testing.F) {
	f.Add([]byte("concurrent-seed"))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) < 2 {
			t.Skip()
		}
		st := New[string](WithShards(32))
		nKeys := int(data[0]%32) + 8
		keys := make([]string, nKeys)
		for i := 0; i < nKeys; i++ {
			keys[i] = fmt.Sprintf("ck%02d", i)
			st.Store(keys[i], 0)
		}
		workers := int(data[1]%8) + 2
		var seedBuf [8]byte
		if len(data) > 2 {
			copy(seedBuf[:], data[2:])
		}
		rndSeed := binary.LittleEndian.Uint64(seedBuf[:])

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(offset int64) {
				defer wg.Done()
				r := rand.New(rand.NewSource(int64(rndSeed) + offset))
				ops := 100 + int(offset%200)
				for i := 0; i < ops; i++ {
					k := keys[r.Intn(len(keys))]
					switch r.Intn(4) {
					case 0:
						st.Store(k, int64(r.Intn(3)))
					case 1:
						st.Load(k)
					case 2:
						st.Delete(k)
					case 3:
						st.CompareAndDelete(k, int64(r.Intn(3)))
					}
				}
			}(int64(w))
		}
		wg.Wait()

		if l := st.Len(); l < 0 || l > nKeys {
			t.Fatalf("invalid length %d", l)
		}
	})
}
