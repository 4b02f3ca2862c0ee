//go:build darwin

package focus

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework AppKit -framework Foundation
#import <ApplicationServices/ApplicationServices.h>
#import <AppKit/AppKit.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
    char* bundleID;
    char* appName;
    char* role;
    char* value;
    int   hasValue;
    int   editable;
    long  selStart;
    long  selLen;
    int   hasSelection;
    int   nestedTextFocus;
    int   editMode;
} focusSnapshot;

// Status codes for readFocusSnapshot.
enum {
    focusOK           = 0,
    focusNoFrontmost  = 1,
    focusUnauthorized = 2,
    focusNoElement    = 3,
};

static char* copyStringAttr(AXUIElementRef el, CFStringRef attr) {
    CFTypeRef val = NULL;
    if (AXUIElementCopyAttributeValue(el, attr, &val) != kAXErrorSuccess || val == NULL) {
        return NULL;
    }
    char* out = NULL;
    if (CFGetTypeID(val) == CFStringGetTypeID()) {
        CFStringRef s = (CFStringRef)val;
        CFIndex max = CFStringGetMaximumSizeForEncoding(CFStringGetLength(s), kCFStringEncodingUTF8) + 1;
        out = malloc(max);
        if (out != NULL && !CFStringGetCString(s, out, max, kCFStringEncodingUTF8)) {
            free(out);
            out = NULL;
        }
    }
    CFRelease(val);
    return out;
}

static int roleIsTextual(const char* role) {
    if (role == NULL) return 0;
    return strcmp(role, "AXTextField") == 0 ||
           strcmp(role, "AXTextArea") == 0 ||
           strcmp(role, "AXSearchField") == 0;
}

// Every AXUIElementRef created here is released before returning; the
// accessibility layer owns the elements and our references are scoped to
// this one query.
int readFocusSnapshot(focusSnapshot* out) {
    memset(out, 0, sizeof(*out));

    if (!AXIsProcessTrusted()) {
        return focusUnauthorized;
    }

    NSRunningApplication* front = [[NSWorkspace sharedWorkspace] frontmostApplication];
    if (front == nil) {
        return focusNoFrontmost;
    }
    if (front.bundleIdentifier != nil) {
        out->bundleID = strdup([front.bundleIdentifier UTF8String]);
    }
    if (front.localizedName != nil) {
        out->appName = strdup([front.localizedName UTF8String]);
    }

    AXUIElementRef app = AXUIElementCreateApplication(front.processIdentifier);
    if (app == NULL) {
        return focusNoElement;
    }

    CFTypeRef focusedRef = NULL;
    AXError err = AXUIElementCopyAttributeValue(app, kAXFocusedUIElementAttribute, &focusedRef);
    CFRelease(app);
    if (err == kAXErrorAPIDisabled || err == kAXErrorNotImplemented) {
        return focusUnauthorized;
    }
    if (err != kAXErrorSuccess || focusedRef == NULL) {
        return focusNoElement;
    }
    AXUIElementRef focused = (AXUIElementRef)focusedRef;

    out->role = copyStringAttr(focused, kAXRoleAttribute);

    CFTypeRef valueRef = NULL;
    if (AXUIElementCopyAttributeValue(focused, kAXValueAttribute, &valueRef) == kAXErrorSuccess &&
        valueRef != NULL) {
        if (CFGetTypeID(valueRef) == CFStringGetTypeID()) {
            out->hasValue = 1;
            out->value = copyStringAttr(focused, kAXValueAttribute);
        }
        CFRelease(valueRef);
    }

    Boolean settable = false;
    if (AXUIElementIsAttributeSettable(focused, kAXValueAttribute, &settable) == kAXErrorSuccess) {
        out->editable = settable ? 1 : 0;
    }

    CFTypeRef rangeRef = NULL;
    if (AXUIElementCopyAttributeValue(focused, kAXSelectedTextRangeAttribute, &rangeRef) == kAXErrorSuccess &&
        rangeRef != NULL) {
        if (CFGetTypeID(rangeRef) == AXValueGetTypeID()) {
            CFRange range;
            if (AXValueGetValue((AXValueRef)rangeRef, kAXValueTypeCFRange, &range)) {
                out->selStart = range.location;
                out->selLen = range.length;
                out->hasSelection = 1;
            }
        }
        CFRelease(rangeRef);
    }

    // Conditional roles need one deeper, role-specific query.
    if (out->role != NULL && strcmp(out->role, "AXWebArea") == 0) {
        CFTypeRef nestedRef = NULL;
        if (AXUIElementCopyAttributeValue(focused, kAXFocusedUIElementAttribute, &nestedRef) == kAXErrorSuccess &&
            nestedRef != NULL) {
            char* nestedRole = copyStringAttr((AXUIElementRef)nestedRef, kAXRoleAttribute);
            out->nestedTextFocus = roleIsTextual(nestedRole);
            free(nestedRole);
            CFRelease(nestedRef);
        }
        // Some web views report the focused field directly as editable web
        // content rather than a nested element.
        if (!out->nestedTextFocus && out->editable) {
            out->nestedTextFocus = 1;
        }
    }
    if (out->role != NULL && strcmp(out->role, "AXCell") == 0) {
        // A cell in edit mode exposes a focused text field child.
        CFTypeRef childrenRef = NULL;
        if (AXUIElementCopyAttributeValue(focused, kAXChildrenAttribute, &childrenRef) == kAXErrorSuccess &&
            childrenRef != NULL) {
            if (CFGetTypeID(childrenRef) == CFArrayGetTypeID()) {
                CFArrayRef children = (CFArrayRef)childrenRef;
                for (CFIndex i = 0; i < CFArrayGetCount(children); i++) {
                    AXUIElementRef child = (AXUIElementRef)CFArrayGetValueAtIndex(children, i);
                    char* childRole = copyStringAttr(child, kAXRoleAttribute);
                    if (roleIsTextual(childRole)) {
                        out->editMode = 1;
                    }
                    free(childRole);
                    if (out->editMode) break;
                }
            }
            CFRelease(childrenRef);
        }
    }

    CFRelease(focused);
    return focusOK;
}

void freeFocusSnapshot(focusSnapshot* s) {
    free(s->bundleID);
    free(s->appName);
    free(s->role);
    free(s->value);
}
*/
import "C"

import "errors"

// ErrUnavailable reports that the accessibility layer refused the query.
var ErrUnavailable = errors.New("focus: accessibility querying unavailable")

type axInspector struct{}

// NewSystemInspector returns the accessibility-layer-backed inspector.
func NewSystemInspector() Inspector {
	return &axInspector{}
}

func (axInspector) CurrentTarget() (*Target, error) {
	var snap C.focusSnapshot
	status := C.readFocusSnapshot(&snap)
	defer C.freeFocusSnapshot(&snap)

	switch status {
	case C.focusUnauthorized:
		return nil, ErrUnavailable
	case C.focusNoFrontmost, C.focusNoElement:
		return nil, nil
	}

	t := &Target{
		AppID:           goStr(snap.bundleID),
		AppName:         goStr(snap.appName),
		Role:            mapRole(goStr(snap.role)),
		Editable:        snap.editable != 0,
		HasValue:        snap.hasValue != 0,
		SelStart:        int(snap.selStart),
		SelLength:       int(snap.selLen),
		HasSelection:    snap.hasSelection != 0,
		NestedTextFocus: snap.nestedTextFocus != 0,
		EditMode:        snap.editMode != 0,
	}
	if t.HasValue {
		t.Value = goStr(snap.value)
	}
	return t, nil
}

func goStr(p *C.char) string {
	if p == nil {
		return ""
	}
	return C.GoString(p)
}

func mapRole(ax string) Role {
	switch ax {
	case "AXTextField":
		return RoleTextField
	case "AXTextArea":
		return RoleTextArea
	case "AXSearchField":
		return RoleSearchField
	case "AXComboBox":
		return RoleComboBox
	case "AXWebArea":
		return RoleWebArea
	case "AXCell":
		return RoleCell
	case "AXGroup":
		return RoleGroup
	default:
		return RoleUnknown
	}
}
