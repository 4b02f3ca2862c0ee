//go:build darwin

package clip

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation
#import <AppKit/AppKit.h>
#import <Foundation/Foundation.h>
#include <stdlib.h>
#include <string.h>

long pbChangeCount(void) {
    return [[NSPasteboard generalPasteboard] changeCount];
}

long pbItemCount(void) {
    return (long)[[[NSPasteboard generalPasteboard] pasteboardItems] count];
}

long pbFormatCount(long item) {
    NSArray<NSPasteboardItem*>* items = [[NSPasteboard generalPasteboard] pasteboardItems];
    if (item < 0 || item >= (long)[items count]) return 0;
    return (long)[[items[item] types] count];
}

char* pbFormatName(long item, long format) {
    NSArray<NSPasteboardItem*>* items = [[NSPasteboard generalPasteboard] pasteboardItems];
    if (item < 0 || item >= (long)[items count]) return NULL;
    NSArray<NSPasteboardType>* types = [items[item] types];
    if (format < 0 || format >= (long)[types count]) return NULL;
    return strdup([types[format] UTF8String]);
}

void* pbFormatData(long item, long format, long* outLen) {
    *outLen = 0;
    NSArray<NSPasteboardItem*>* items = [[NSPasteboard generalPasteboard] pasteboardItems];
    if (item < 0 || item >= (long)[items count]) return NULL;
    NSArray<NSPasteboardType>* types = [items[item] types];
    if (format < 0 || format >= (long)[types count]) return NULL;
    NSData* data = [items[item] dataForType:types[format]];
    if (data == nil) return NULL;
    void* buf = malloc([data length]);
    if (buf == NULL) return NULL;
    memcpy(buf, [data bytes], [data length]);
    *outLen = (long)[data length];
    return buf;
}

int pbWriteText(const char* text) {
    NSPasteboard* pb = [NSPasteboard generalPasteboard];
    [pb clearContents];
    NSString* s = [NSString stringWithUTF8String:text];
    return [pb setString:s forType:NSPasteboardTypeString] ? 0 : 1;
}

// Restore path: items are rebuilt one at a time, then committed in a single
// clearContents + writeObjects so the change counter advances exactly once.
static NSMutableArray<NSPasteboardItem*>* pendingItems = nil;

void pbResetPending(void) {
    pendingItems = [NSMutableArray array];
}

void pbPendingNewItem(void) {
    [pendingItems addObject:[[NSPasteboardItem alloc] init]];
}

int pbPendingSetData(const char* type, const void* bytes, long len) {
    if ([pendingItems count] == 0) return 1;
    NSPasteboardItem* item = [pendingItems lastObject];
    NSData* data = [NSData dataWithBytes:bytes length:(NSUInteger)len];
    NSString* t = [NSString stringWithUTF8String:type];
    return [item setData:data forType:t] ? 0 : 1;
}

int pbCommitPending(void) {
    NSPasteboard* pb = [NSPasteboard generalPasteboard];
    [pb clearContents];
    BOOL ok = [pb writeObjects:pendingItems];
    pendingItems = nil;
    return ok ? 0 : 1;
}
*/
import "C"

import (
	"errors"
	"unsafe"
)

// nsPasteboard reads and writes the general NSPasteboard. The native change
// counter is the consistency signal the arbiter relies on.
type nsPasteboard struct{}

// NewSystemClipboard returns the NSPasteboard-backed clipboard.
func NewSystemClipboard() Clipboard {
	return &nsPasteboard{}
}

func (nsPasteboard) ChangeCount() (int64, error) {
	return int64(C.pbChangeCount()), nil
}

func (nsPasteboard) Items() ([]Item, error) {
	n := int(C.pbItemCount())
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		var item Item
		nf := int(C.pbFormatCount(C.long(i)))
		for f := 0; f < nf; f++ {
			cname := C.pbFormatName(C.long(i), C.long(f))
			if cname == nil {
				continue
			}
			name := C.GoString(cname)
			C.free(unsafe.Pointer(cname))

			var clen C.long
			cdata := C.pbFormatData(C.long(i), C.long(f), &clen)
			var data []byte
			if cdata != nil {
				data = C.GoBytes(cdata, C.int(clen))
				C.free(cdata)
			}
			item.Formats = append(item.Formats, FormatData{Format: name, Data: data})
		}
		items = append(items, item)
	}
	return items, nil
}

func (nsPasteboard) WriteText(text string) error {
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	if C.pbWriteText(ctext) != 0 {
		return errors.New("clip: pasteboard write refused")
	}
	return nil
}

func (nsPasteboard) Write(items []Item) error {
	C.pbResetPending()
	for _, item := range items {
		C.pbPendingNewItem()
		for _, fd := range item.Formats {
			ctype := C.CString(fd.Format)
			var ptr unsafe.Pointer
			if len(fd.Data) > 0 {
				ptr = unsafe.Pointer(&fd.Data[0])
			}
			rc := C.pbPendingSetData(ctype, ptr, C.long(len(fd.Data)))
			C.free(unsafe.Pointer(ctype))
			if rc != 0 {
				return errors.New("clip: pasteboard item write refused")
			}
		}
	}
	if C.pbCommitPending() != 0 {
		return errors.New("clip: pasteboard commit refused")
	}
	return nil
}
