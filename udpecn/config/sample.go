// Copyright 2025 SCION Association
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

const socketSample = `
# Requested size of the socket send buffer in bytes. The kernel may grant
# less. (default 0, the system default)
send_buffer_size = 0

# Requested size of the socket receive buffer in bytes. The kernel may grant
# less. (default 0, the system default)
receive_buffer_size = 0

# Disable UDP segmentation offload. (default false)
disable_gso = false

# Disable UDP receive offload. (default false)
disable_gro = false
`

const echoSample = `
# The address the echo server listens on. (default "[::]:30707")
listen = "[::]:30707"

# The number of peers whose ECN statistics are kept. The least valuable
# peers are evicted first. (default 1024)
peers = 1024

# The size of a single receive buffer in bytes. (default 1500)
mtu = 1500
`
