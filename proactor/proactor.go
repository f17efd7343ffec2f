// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package proactor implements api.Proactor over each platform's native
// completion-based I/O facility: epoll+eventfd by default on Linux, a
// real io_uring ring under the io_uring build tag, and IOCP on Windows.
// Exactly one backend compiles per target; the Transport in the
// transport package is the sole caller and owns socket bootstrap
// (resolve, connect, setsockopt) before handing the fd/handle to New.
package proactor
