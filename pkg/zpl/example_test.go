package zpl_test

import (
	"fmt"

	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/zpl"
)

func ExampleCompile() {
	doc := label.New(label.DefaultProfile())
	box, _ := doc.Add(label.TypeBox)
	doc.Update(box.ID, label.Patch{X: label.Ptr(10), Y: label.Ptr(10), Width: label.Ptr(200), Height: label.Ptr(2)})

	prog, _ := zpl.Compile(doc)
	fmt.Println(prog)
	// Output:
	// ^XA
	// ^CI28
	// ^FO20,20
	// ^GB200,2,3^FS
	//
	// ^XZ
}

func ExampleOptimize() {
	fmt.Println(zpl.Optimize("^XA\n\n  // title\n  ^FO10,10\n^XZ"))
	// Output:
	// ^XA
	// ^FO10,10
	// ^XZ
}

func ExampleTemplatize() {
	out, _, _ := zpl.Templatize("^FDTRK1^FS", []zpl.Binding{{Key: "trackingNumber", Value: "TRK1"}}, zpl.SubstituteLongestFirst)
	fmt.Println(out)
	// Output: ^FD{{trackingNumber}}^FS
}
